// Package heightfield provides the functions that assign a top surface
// height to each 2D point of a generated solid.
package heightfield

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// Curve strength bounds for Ease.
const (
	MinCurveStrength = 0.01
	MaxCurveStrength = 10.0
)

// Func maps a 2D position to a z coordinate.
type Func func(p r2.Vec) float64

// Axis selects the coordinate a height function is driven by.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Coord returns the coordinate of p along the axis.
func (a Axis) Coord(p r2.Vec) float64 {
	if a == AxisY {
		return p.Y
	}
	return p.X
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis parses "x" or "y".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Range returns the minimum and maximum coordinate of pts along the axis.
func (a Axis) Range(pts []r2.Vec) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		v := a.Coord(p)
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

// Slope returns zMin + tan(angle)*(v-reference). The result is not clamped.
func Slope(v, zMin, angle, reference float64) float64 {
	return zMin + math.Tan(angle)*(v-reference)
}

// LinearSlope returns a height function rising at angle radians along axis,
// with height zMin at the reference coordinate.
func LinearSlope(zMin, angle float64, axis Axis, reference float64) Func {
	return func(p r2.Vec) float64 {
		return Slope(axis.Coord(p), zMin, angle, reference)
	}
}

// Ease returns the cosine eased height for coordinate v. At or past
// threshold it returns zMax. Below it the height rises from zMin at axisMin
// following 0.5*(1-cos(pi*t^curveStrength)) with t normalized to [0,1].
// curveStrength is clamped to [MinCurveStrength, MaxCurveStrength].
// A threshold at or below axisMin disables the ramp.
func Ease(v, zMax, zMin, threshold, axisMin, curveStrength float64) float64 {
	if threshold <= axisMin || v >= threshold {
		return zMax
	}
	curveStrength = math.Max(MinCurveStrength, math.Min(MaxCurveStrength, curveStrength))
	t := (v - axisMin) / (threshold - axisMin)
	t = math.Max(0, math.Min(1, t))
	eased := 0.5 * (1 - math.Cos(math.Pi*math.Pow(t, curveStrength)))
	return zMin + (zMax-zMin)*eased
}

// EasedRampParams configure EasedRamp.
type EasedRampParams struct {
	ZMax, ZMin    float64
	Axis          Axis
	Threshold     float64
	AxisMin       float64
	CurveStrength float64
}

// EasedRamp returns the height function of Ease for the given parameters.
func EasedRamp(p EasedRampParams) Func {
	return func(v r2.Vec) float64 {
		return Ease(p.Axis.Coord(v), p.ZMax, p.ZMin, p.Threshold, p.AxisMin, p.CurveStrength)
	}
}

// Flat returns a constant height function.
func Flat(z float64) Func {
	return func(r2.Vec) float64 { return z }
}

// Apply evaluates f at every point. Work is split between workers
// goroutines, zero or negative uses GOMAXPROCS. The result is in the order of pts.
func Apply(f Func, pts []r2.Vec, workers int) []float64 {
	z := make([]float64, len(pts))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	const minChunk = 1024
	if workers == 1 || len(pts) < 2*minChunk {
		for i, p := range pts {
			z[i] = f(p)
		}
		return z
	}
	chunk := (len(pts) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	var wg sync.WaitGroup
	for start := 0; start < len(pts); start += chunk {
		end := start + chunk
		if end > len(pts) {
			end = len(pts)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				z[i] = f(pts[i])
			}
		}(start, end)
	}
	wg.Wait()
	return z
}
