package heightfield

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestSlopePalmRest(t *testing.T) {
	f := LinearSlope(3, 6.5*math.Pi/180, AxisX, 0)
	if got := f(r2.Vec{X: 0, Y: 7}); got != 3 {
		t.Errorf("x=0: got %g, want 3", got)
	}
	want := 3 + math.Tan(6.5*math.Pi/180)*10
	if got := f(r2.Vec{X: 10, Y: 0}); math.Abs(got-want) > 1e-12 || math.Abs(got-4.14) > 0.01 {
		t.Errorf("x=10: got %g, want %g", got, want)
	}
	// Points before the reference dip below zMin.
	if got := f(r2.Vec{X: -10}); got >= 3 {
		t.Errorf("negative side should be below zMin, got %g", got)
	}
}

func TestEasePlateau(t *testing.T) {
	const zMin, zMax, threshold, axisMin = 3, 10, 80, 0
	for _, test := range []struct {
		v, want float64
	}{
		{0, 3},
		{40, 6.5},
		{80, 10},
		{120, 10},
		{-5, 3},
	} {
		got := Ease(test.v, zMax, zMin, threshold, axisMin, 1)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("v=%g: got %g, want %g", test.v, got, test.want)
		}
	}
}

func TestEaseMonotonic(t *testing.T) {
	for _, cs := range []float64{0, 0.01, 0.5, 1, 2, 10, 50} {
		prev := math.Inf(-1)
		for v := -10.0; v <= 100; v += 0.25 {
			z := Ease(v, 10, 3, 80, 0, cs)
			if z < prev {
				t.Fatalf("curve %g: decreasing at v=%g (%g < %g)", cs, v, z, prev)
			}
			if z < 3 || z > 10 {
				t.Fatalf("curve %g: out of range at v=%g: %g", cs, v, z)
			}
			prev = z
		}
	}
}

func TestEaseClampCurve(t *testing.T) {
	if Ease(20, 10, 3, 80, 0, 1000) != Ease(20, 10, 3, 80, 0, MaxCurveStrength) {
		t.Error("curve strength not clamped from above")
	}
	if Ease(20, 10, 3, 80, 0, -1) != Ease(20, 10, 3, 80, 0, MinCurveStrength) {
		t.Error("curve strength not clamped from below")
	}
}

func TestEaseDisabledRamp(t *testing.T) {
	for _, v := range []float64{-100, 0, 5, 100} {
		if got := Ease(v, 10, 3, 0, 0, 1); got != 10 {
			t.Errorf("v=%g: got %g, want zMax", v, got)
		}
		if got := Ease(v, 10, 3, -5, 0, 1); got != 10 {
			t.Errorf("v=%g: got %g, want zMax", v, got)
		}
	}
}

func TestEasedRampAxis(t *testing.T) {
	f := EasedRamp(EasedRampParams{ZMax: 10, ZMin: 3, Axis: AxisY, Threshold: 80, CurveStrength: 1})
	if got := f(r2.Vec{X: 1000, Y: 40}); math.Abs(got-6.5) > 1e-12 {
		t.Errorf("got %g, want 6.5", got)
	}
}

func TestApply(t *testing.T) {
	pts := make([]r2.Vec, 5000)
	for i := range pts {
		pts[i] = r2.Vec{X: float64(i)}
	}
	f := LinearSlope(1, math.Pi/4, AxisX, 0)
	for _, workers := range []int{0, 1, 3} {
		z := Apply(f, pts, workers)
		for i := range z {
			if math.Abs(z[i]-(1+float64(i))) > 1e-9 {
				t.Fatalf("workers=%d: z[%d]=%g", workers, i, z[i])
			}
		}
	}
}

func TestParseAxis(t *testing.T) {
	for s, want := range map[string]Axis{"x": AxisX, "Y": AxisY, " y ": AxisY, "": AxisX} {
		got, err := ParseAxis(s)
		if err != nil || got != want {
			t.Errorf("%q: got %v, %v", s, got, err)
		}
	}
	if _, err := ParseAxis("z"); err == nil {
		t.Error("expected error")
	}
}
