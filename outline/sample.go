package outline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxSamples bounds the number of grid points SampleInterior visits.
const MaxSamples = 10_000_000

// ErrTooManySamples is returned by CheckSpacing when the sample grid would
// exceed MaxSamples points.
var ErrTooManySamples = errors.New("interior sample grid too large")

// gridSize returns the number of grid columns and rows over the bounding
// box of o.
func gridSize(o Outline, spacing float64) (nx, ny float64) {
	box := o.Bounds()
	return math.Floor((box.Max.X-box.Min.X)/spacing) + 1, math.Floor((box.Max.Y-box.Min.Y)/spacing) + 1
}

// CheckSpacing reports an error when spacing is not positive or the grid
// it lays over o would hold more than MaxSamples points.
func CheckSpacing(o Outline, spacing float64) error {
	if !(spacing > 0) {
		return fmt.Errorf("interior spacing must be positive, got %g", spacing)
	}
	if nx, ny := gridSize(o, spacing); nx*ny > MaxSamples {
		return fmt.Errorf("spacing %g over a %gx%g outline: %w", spacing, nx*spacing, ny*spacing, ErrTooManySamples)
	}
	return nil
}

// SampleInterior lays a regular grid with the given spacing over the
// bounding box of o, anchored at the box minimum, and returns the grid
// points strictly inside o. Points are ordered by x first, then y.
// A spacing rejected by CheckSpacing returns no points.
func SampleInterior(o Outline, spacing float64) []r2.Vec {
	if len(o) < 3 || CheckSpacing(o, spacing) != nil {
		return nil
	}
	idx := NewIndex(o)
	box := o.Bounds()
	nx := int((box.Max.X - box.Min.X) / spacing)
	ny := int((box.Max.Y - box.Min.Y) / spacing)
	var pts []r2.Vec
	for i := 0; i <= nx; i++ {
		x := box.Min.X + float64(i)*spacing
		if x >= box.Max.X {
			break
		}
		for j := 0; j <= ny; j++ {
			y := box.Min.Y + float64(j)*spacing
			if y >= box.Max.Y {
				break
			}
			p := r2.Vec{X: x, Y: y}
			if idx.Contains(p) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}
