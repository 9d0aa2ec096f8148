package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// Bounds returns the smallest box containing all points.
func Bounds(pts []r3.Vec) r3.Box {
	if len(pts) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = MinElem(b.Min, p)
		b.Max = MaxElem(b.Max, p)
	}
	return b
}

// Normal returns the unit normal of triangle abc following the right hand
// rule. Degenerate triangles return the zero vector.
func Normal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// SignedVolume returns the signed volume of the tetrahedron formed by
// the origin and triangle abc. Summed over a closed outward facing
// shell it gives the enclosed volume.
func SignedVolume(a, b, c r3.Vec) float64 {
	return r3.Dot(a, r3.Cross(b, c)) / 6
}
