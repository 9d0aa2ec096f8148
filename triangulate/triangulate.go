// Package triangulate fills an outline with triangles to build the caps of
// a generated solid.
package triangulate

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
	"github.com/soypat/keebcase/internal/d2"
	"github.com/soypat/keebcase/outline"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyTriangulation is returned when no triangle covers the outline.
var ErrEmptyTriangulation = errors.New("empty triangulation")

// Cap is a triangulated region shared by the top and bottom of a solid.
type Cap struct {
	// Points is the combined point set: outline points, then interior
	// points, then hollow boundary points. Exact duplicates are merged.
	Points []r2.Vec
	// Triangles index into Points. They are clockwise when seen from +z.
	Triangles [][3]int
	// Boundary[i] is the index in Points of the i'th outline point.
	Boundary []int
	// HollowBoundary[i] is the index in Points of the i'th hollow outline point.
	HollowBoundary []int
	// Missing counts boundary edges absent from the triangulation. It is
	// non-zero only when a point lies on a boundary edge or a boundary
	// crosses itself.
	Missing int
}

// Triangulate computes the Delaunay triangulation of the outline, interior
// and hollow points, recovers every outline and hollow edge by edge flips
// so the triangulation conforms to both boundaries, and keeps triangles
// whose centroid lies strictly inside o and, when hollow is not nil,
// outside hollow.
func Triangulate(o outline.Outline, interior []r2.Vec, hollow outline.Outline) (Cap, error) {
	if len(o) < 3 {
		return Cap{}, outline.ErrTooFewPoints
	}
	var c Cap
	seen := make(map[r2.Vec]int, len(o)+len(interior)+len(hollow))
	add := func(p r2.Vec) int {
		if i, ok := seen[p]; ok {
			return i
		}
		seen[p] = len(c.Points)
		c.Points = append(c.Points, p)
		return len(c.Points) - 1
	}
	c.Boundary = make([]int, len(o))
	for i, p := range o {
		c.Boundary[i] = add(p)
	}
	for _, p := range interior {
		add(p)
	}
	if hollow != nil {
		c.HollowBoundary = make([]int, len(hollow))
		for i, p := range hollow {
			c.HollowBoundary[i] = add(p)
		}
	}

	dpts := make([]delaunay.Point, len(c.Points))
	for i, p := range c.Points {
		dpts[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tri, err := delaunay.Triangulate(dpts)
	if err != nil {
		return Cap{}, fmt.Errorf("delaunay of %d points: %w", len(dpts), err)
	}

	m := newMesh(c.Points, tri.Triangles)
	c.Missing = m.constrain(c.Boundary)
	if hollow != nil {
		c.Missing += m.constrain(c.HollowBoundary)
	}

	outer := outline.NewIndex(o)
	var inner *outline.Index
	if hollow != nil {
		inner = outline.NewIndex(hollow)
	}
	box := d2.Bounds(c.Points)
	size := math.Max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y)
	minArea2 := 1e-12 * size * size
	for _, t := range m.tris {
		a, b, cc := c.Points[t[0]], c.Points[t[1]], c.Points[t[2]]
		if d2.Orient(a, b, cc) <= minArea2 {
			continue
		}
		centroid := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), cc))
		if !outer.Contains(centroid) {
			continue
		}
		if inner != nil && inner.Locate(centroid) != outline.Outside {
			continue
		}
		// Counter-clockwise in the mesh, clockwise in the cap.
		c.Triangles = append(c.Triangles, [3]int{t[0], t[2], t[1]})
	}
	if len(c.Triangles) == 0 {
		return Cap{}, ErrEmptyTriangulation
	}
	return c, nil
}

// Area returns the total area covered by the cap triangles.
func (c Cap) Area() (a float64) {
	for _, t := range c.Triangles {
		a += math.Abs(d2.Orient(c.Points[t[0]], c.Points[t[1]], c.Points[t[2]])) / 2
	}
	return a
}
