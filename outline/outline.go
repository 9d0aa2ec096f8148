// Package outline handles closed 2D polygon boundaries that define the
// footprint of a generated solid: normalization, edge resampling, inward
// offsetting and interior sampling.
package outline

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/soypat/keebcase/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrTooFewPoints is returned when an outline has less than 3 distinct points.
	ErrTooFewPoints = errors.New("outline needs at least 3 distinct points")
	// ErrCollapsed is returned by Shrink when the offset leaves no area.
	ErrCollapsed = errors.New("offset too large: outline collapsed")
)

// coincident is the distance under which two outline points are merged.
const coincident = 1e-9

// Outline is an ordered cyclic sequence of distinct 2D points. The last
// point connects back to the first, so there is no closing duplicate.
type Outline []r2.Vec

// Normalize strips a duplicated closing point and consecutive duplicate
// points from pts and returns the resulting Outline. The input is not modified.
func Normalize(pts []r2.Vec) (Outline, error) {
	o := make(Outline, 0, len(pts))
	for _, p := range pts {
		if len(o) > 0 && d2.EqualWithin(o[len(o)-1], p, coincident) {
			continue
		}
		o = append(o, p)
	}
	for len(o) > 1 && d2.EqualWithin(o[0], o[len(o)-1], coincident) {
		o = o[:len(o)-1]
	}
	if len(o) < 3 {
		return nil, fmt.Errorf("normalize %d points: %w", len(pts), ErrTooFewPoints)
	}
	return o, nil
}

// Resample returns an outline with k evenly spaced points per edge, from
// the start vertex up to but not including the end vertex. The result
// has k*len(o) points, keeps the winding of o and starts at o[0].
// A k of 1 returns a copy of o.
func Resample(o Outline, k int) (Outline, error) {
	if k < 1 {
		return nil, fmt.Errorf("resample: subdivisions must be >= 1, got %d", k)
	}
	res := make(Outline, 0, k*len(o))
	for i, a := range o {
		b := o[(i+1)%len(o)]
		for j := 0; j < k; j++ {
			res = append(res, d2.Lerp(a, b, float64(j)/float64(k)))
		}
	}
	return res, nil
}

// Edge returns the i'th edge of the outline. The index wraps around.
func (o Outline) Edge(i int) (a, b r2.Vec) {
	n := len(o)
	i = ((i % n) + n) % n
	return o[i], o[(i+1)%n]
}

// Ring returns the outline as a closed orb.Ring.
func (o Outline) Ring() orb.Ring {
	r := make(orb.Ring, 0, len(o)+1)
	for _, p := range o {
		r = append(r, orb.Point{p.X, p.Y})
	}
	if len(o) > 0 {
		r = append(r, r[0])
	}
	return r
}

// Area returns the signed area of the outline. It is positive for
// counter-clockwise outlines.
func (o Outline) Area() float64 {
	if len(o) < 3 {
		return 0
	}
	return planar.Area(o.Ring())
}

// Centroid returns the area centroid of the outline.
func (o Outline) Centroid() r2.Vec {
	c, _ := planar.CentroidArea(o.Ring())
	return r2.Vec{X: c[0], Y: c[1]}
}

// Orientation returns orb.CCW or orb.CW. Zero area outlines return 0.
func (o Outline) Orientation() orb.Orientation {
	if len(o) < 3 {
		return 0
	}
	return o.Ring().Orientation()
}

// CCW returns o in counter-clockwise order. The first point is kept first
// so indices of a CCW outline are unchanged.
func (o Outline) CCW() Outline {
	c := make(Outline, len(o))
	copy(c, o)
	if o.Orientation() == orb.CW {
		for i, j := 1, len(c)-1; i < j; i, j = i+1, j-1 {
			c[i], c[j] = c[j], c[i]
		}
	}
	return c
}

// Bounds returns the bounding box of the outline.
func (o Outline) Bounds() r2.Box {
	return d2.Bounds(o)
}

// Perimeter returns the length of the closed outline.
func (o Outline) Perimeter() (l float64) {
	for i := range o {
		a, b := o.Edge(i)
		l += r2.Norm(r2.Sub(b, a))
	}
	return l
}
