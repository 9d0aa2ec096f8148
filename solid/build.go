package solid

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/heightfield"
	"github.com/soypat/keebcase/outline"
	"github.com/soypat/keebcase/triangulate"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Params configure Build.
type Params struct {
	// Outline is the outer boundary walked to stitch the outer wall.
	Outline outline.Outline
	// Hollow is the inner boundary of a shell. Nil builds a solid.
	Hollow outline.Outline
	Cap    triangulate.Cap
	Top    heightfield.Func
	// Base is the height of the flat bottom.
	Base float64
	// Workers used to evaluate Top. Zero uses GOMAXPROCS.
	Workers int
	Log     logrus.FieldLogger
}

// Build assembles the solid: the cap at Base as the bottom, the cap
// displaced by Top with reversed winding as the top, and vertical walls
// along the outline and, if present, the hollow boundary facing into the
// hollow. Vertex i of the cap becomes vertices i (bottom) and i+n (top).
//
// Boundary points are matched to cap points through the cap's recorded
// boundary indices. When those do not correspond to the given outline the
// nearest cap point is used, ties going to the lowest index. Ambiguous and
// inexact matches are logged since they may leave the mesh open.
func Build(p Params) (Mesh, error) {
	if p.Top == nil {
		return Mesh{}, errors.New("build: nil height function")
	}
	if len(p.Cap.Triangles) == 0 {
		return Mesh{}, triangulate.ErrEmptyTriangulation
	}
	log := p.Log
	if log == nil {
		log = discard()
	}
	pts := p.Cap.Points
	n := len(pts)
	z := heightfield.Apply(p.Top, pts, p.Workers)
	m := Mesh{
		Vertices: make([]r3.Vec, 2*n),
		Faces:    make([][3]int, 0, 2*len(p.Cap.Triangles)+2*(len(p.Outline)+len(p.Hollow))),
	}
	below := 0
	for i, pt := range pts {
		m.Vertices[i] = r3.Vec{X: pt.X, Y: pt.Y, Z: p.Base}
		m.Vertices[i+n] = r3.Vec{X: pt.X, Y: pt.Y, Z: z[i]}
		if z[i] <= p.Base {
			below++
		}
	}
	if below > 0 {
		log.WithField("vertices", below).Warn("top surface at or below base")
	}
	m.Faces = append(m.Faces, p.Cap.Triangles...)
	for _, t := range p.Cap.Triangles {
		m.Faces = append(m.Faces, [3]int{t[2] + n, t[1] + n, t[0] + n})
	}

	var match *matcher
	walls := func(boundary outline.Outline, indices []int, outer bool) {
		if len(boundary) < 3 {
			return
		}
		idx := indices
		if !exact(pts, boundary, indices) {
			if match == nil {
				match = newMatcher(pts)
			}
			idx = make([]int, len(boundary))
			ambiguous, inexact := 0, 0
			for i, b := range boundary {
				j, ties, dist := match.nearest(b)
				idx[i] = j
				if ties > 1 {
					ambiguous++
				}
				if dist > 0 {
					inexact++
				}
			}
			if ambiguous > 0 || inexact > 0 {
				log.WithFields(logrus.Fields{
					"outer":     outer,
					"ambiguous": ambiguous,
					"inexact":   inexact,
				}).Warn("boundary matched by nearest neighbour")
			}
		}
		ccw := boundary.Orientation() == orb.CCW
		outward := ccw == outer
		skipped := 0
		for i := range boundary {
			a, b := idx[i], idx[(i+1)%len(idx)]
			if a == b {
				skipped++
				continue
			}
			if !outward {
				a, b = b, a
			}
			m.Faces = append(m.Faces,
				[3]int{a, b, a + n},
				[3]int{b, b + n, a + n},
			)
		}
		if skipped > 0 {
			log.WithField("walls", skipped).Debug("skipped zero length walls")
		}
	}
	walls(p.Outline, p.Cap.Boundary, true)
	if p.Hollow != nil {
		walls(p.Hollow, p.Cap.HollowBoundary, false)
	}
	return m, nil
}

// exact reports whether indices map every boundary point to an identical cap point.
func exact(pts []r2.Vec, boundary outline.Outline, indices []int) bool {
	if len(indices) != len(boundary) {
		return false
	}
	for i, j := range indices {
		if j < 0 || j >= len(pts) || pts[j] != boundary[i] {
			return false
		}
	}
	return true
}

// matcher finds the nearest cap point to a boundary point.
type matcher struct {
	tree *kdtree.Tree
}

func newMatcher(pts []r2.Vec) *matcher {
	cp := make(capPoints, len(pts))
	for i, p := range pts {
		cp[i] = capPoint{Vec: p, i: i}
	}
	return &matcher{tree: kdtree.New(cp, false)}
}

// nearest returns the lowest cap index among the points closest to p, the
// number of points at that distance and the distance itself.
func (m *matcher) nearest(p r2.Vec) (idx, ties int, dist float64) {
	q := capPoint{Vec: p}
	c, d := m.tree.Nearest(q)
	if c == nil {
		return -1, 0, math.Inf(1)
	}
	keep := kdtree.NewDistKeeper(d * (1 + 1e-12))
	m.tree.NearestSet(keep, q)
	idx = c.(capPoint).i
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		ties++
		if i := cd.Comparable.(capPoint).i; i < idx {
			idx = i
		}
	}
	return idx, ties, math.Sqrt(d)
}

// capPoint is a kdtree.Comparable cap point that remembers its index.
type capPoint struct {
	r2.Vec
	i int
}

func (p capPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(capPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	}
	panic("illegal dimension")
}

func (p capPoint) Dims() int { return 2 }

// Distance returns the squared euclidean distance.
func (p capPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(capPoint)
	return r2.Norm2(r2.Sub(p.Vec, q.Vec))
}

type capPoints []capPoint

func (p capPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p capPoints) Len() int                       { return len(p) }
func (p capPoints) Pivot(d kdtree.Dim) int {
	pl := kdPlane{dim: d, pts: p}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}
func (p capPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type kdPlane struct {
	dim kdtree.Dim
	pts capPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.pts[i].Compare(p.pts[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) { p.pts[i], p.pts[j] = p.pts[j], p.pts[i] }
func (p kdPlane) Len() int      { return len(p.pts) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.pts = p.pts[start:end]
	return p
}
