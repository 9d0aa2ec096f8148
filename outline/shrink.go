package outline

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/soypat/keebcase/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// clearance is the relative slack allowed when checking that an offset
// vertex keeps its distance to the original boundary.
const clearance = 1e-6

// Shrink returns the outline offset inwards by distance d using mitered
// corners. Offset vertices that end up closer than d to any part of the
// original boundary are discarded, which removes the loops produced by
// short edges and narrow necks. If fewer than 3 vertices survive or the
// remaining polygon has no positive area the outline has collapsed and
// ErrCollapsed is returned.
//
// The result keeps the winding of o.
func Shrink(o Outline, d float64) (Outline, error) {
	if d <= 0 {
		return nil, fmt.Errorf("shrink: distance must be positive, got %g", d)
	}
	if len(o) < 3 {
		return nil, ErrTooFewPoints
	}
	wasCW := o.Orientation() == orb.CW
	ccw := o.CCW()
	if ccw.Area() <= 0 {
		return nil, fmt.Errorf("shrink zero area outline: %w", ErrCollapsed)
	}
	idx := NewIndex(ccw)
	n := len(ccw)
	var pts []r2.Vec
	for i, cur := range ccw {
		prev := ccw[(i-1+n)%n]
		next := ccw[(i+1)%n]
		// Interior lies to the left of a CCW outline.
		n1 := d2.LeftNormal(r2.Sub(cur, prev))
		n2 := d2.LeftNormal(r2.Sub(next, cur))
		var miter r2.Vec
		if den := 1 + r2.Dot(n1, n2); den > 1e-6 {
			miter = r2.Scale(d/den, r2.Add(n1, n2))
		} else {
			// Edge folds back on itself.
			miter = r2.Scale(d, n1)
		}
		q := r2.Add(cur, miter)
		if idx.Locate(q) != Inside || idx.DistanceWithin(q, d*(1-clearance)) {
			continue
		}
		pts = append(pts, q)
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("shrink by %g: %w", d, ErrCollapsed)
	}
	res, err := Normalize(pts)
	if err != nil {
		return nil, fmt.Errorf("shrink by %g: %w", d, ErrCollapsed)
	}
	if res.Area() <= 0 {
		return nil, fmt.Errorf("shrink by %g: %w", d, ErrCollapsed)
	}
	if wasCW {
		for i, j := 1, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return res, nil
}
