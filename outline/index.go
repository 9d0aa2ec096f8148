package outline

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/soypat/keebcase/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Location classifies a point against an outline.
type Location int

const (
	Outside Location = iota
	Inside
	Boundary
)

func (l Location) String() string {
	switch l {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	}
	return "Location(?)"
}

// Index is an R-tree over the edges of an outline used for point location
// and distance to boundary queries. It is safe for concurrent reads.
type Index struct {
	o    Outline
	tree *rtreego.Rtree
	box  r2.Box
	// pad inflates every rectangle. rtreego treats touching rectangles
	// as disjoint.
	pad float64
	// Tol is the distance under which a point is considered on the boundary.
	Tol float64
}

type edge struct {
	i    int
	a, b r2.Vec
	rect rtreego.Rect
}

func (e *edge) Bounds() rtreego.Rect { return e.rect }

// NewIndex builds the edge index of o.
func NewIndex(o Outline) *Index {
	box := o.Bounds()
	size := math.Max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y)
	idx := &Index{
		o:   o,
		box: box,
		pad: 1e-9 * math.Max(1, size),
		Tol: 1e-9 * math.Max(1, size),
	}
	objs := make([]rtreego.Spatial, len(o))
	for i := range o {
		a, b := o.Edge(i)
		objs[i] = &edge{i: i, a: a, b: b, rect: idx.rect(d2.MinElem(a, b), d2.MaxElem(a, b))}
	}
	idx.tree = rtreego.NewTree(2, 4, 16, objs...)
	return idx
}

func (idx *Index) rect(min, max r2.Vec) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{min.X - idx.pad, min.Y - idx.pad},
		rtreego.Point{max.X + idx.pad, max.Y + idx.pad},
	)
	if err != nil {
		panic(err) // dimensions always match.
	}
	return r
}

// Outline returns the indexed outline.
func (idx *Index) Outline() Outline { return idx.o }

// DistanceWithin reports whether p lies within d of the outline boundary.
func (idx *Index) DistanceWithin(p r2.Vec, d float64) bool {
	for _, h := range idx.tree.SearchIntersect(idx.rect(r2.Vec{X: p.X - d, Y: p.Y - d}, r2.Vec{X: p.X + d, Y: p.Y + d})) {
		e := h.(*edge)
		if d2.DistToSegment(p, e.a, e.b) <= d {
			return true
		}
	}
	return false
}

// Distance returns the distance from p to the closest outline edge.
func (idx *Index) Distance(p r2.Vec) float64 {
	// Grow the search window until it contains an edge. The nearest edge
	// may still lie outside the first window's inscribed circle so the
	// final search uses the distance found.
	d := idx.pad
	span := math.Max(idx.box.Max.X-idx.box.Min.X, idx.box.Max.Y-idx.box.Min.Y)
	span += r2.Norm(r2.Sub(p, idx.box.Min)) + r2.Norm(r2.Sub(p, idx.box.Max))
	var hits []rtreego.Spatial
	for {
		hits = idx.tree.SearchIntersect(idx.rect(r2.Vec{X: p.X - d, Y: p.Y - d}, r2.Vec{X: p.X + d, Y: p.Y + d}))
		if len(hits) > 0 || d > span {
			break
		}
		d = 2*d + idx.pad*1e3
	}
	best := math.Inf(1)
	for _, h := range hits {
		e := h.(*edge)
		best = math.Min(best, d2.DistToSegment(p, e.a, e.b))
	}
	if best > d {
		for _, h := range idx.tree.SearchIntersect(idx.rect(r2.Vec{X: p.X - best, Y: p.Y - best}, r2.Vec{X: p.X + best, Y: p.Y + best})) {
			e := h.(*edge)
			best = math.Min(best, d2.DistToSegment(p, e.a, e.b))
		}
	}
	return best
}

// Locate classifies p as inside, outside or on the boundary of the outline.
func (idx *Index) Locate(p r2.Vec) Location {
	if p.X < idx.box.Min.X-idx.Tol || p.X > idx.box.Max.X+idx.Tol ||
		p.Y < idx.box.Min.Y-idx.Tol || p.Y > idx.box.Max.Y+idx.Tol {
		return Outside
	}
	if idx.DistanceWithin(p, idx.Tol) {
		return Boundary
	}
	// Cast a ray towards +x and count edge crossings.
	ray := idx.rect(p, r2.Vec{X: idx.box.Max.X + 1, Y: p.Y})
	inside := false
	for _, h := range idx.tree.SearchIntersect(ray) {
		e := h.(*edge)
		a, b := e.a, e.b
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if p.X < x {
			inside = !inside
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

// Contains reports whether p is strictly inside the outline. Points on the
// boundary are not contained.
func (idx *Index) Contains(p r2.Vec) bool {
	return idx.Locate(p) == Inside
}

// Contains reports whether p is strictly inside o. Use an Index when
// querying many points.
func (o Outline) Contains(p r2.Vec) bool {
	return NewIndex(o).Contains(p)
}
