package outline_test

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/soypat/keebcase/outline"
	"gonum.org/v1/gonum/spatial/r2"
)

func square(side float64) outline.Outline {
	return outline.Outline{{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}}
}

// lShape is a concave counter-clockwise L of area 300.
func lShape() outline.Outline {
	return outline.Outline{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 20}}
}

func TestNormalize(t *testing.T) {
	closed := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	o, err := outline.Normalize(closed)
	if err != nil {
		t.Fatal(err)
	}
	want := outline.Outline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if len(o) != len(want) {
		t.Fatalf("got %d points, want %d: %v", len(o), len(want), o)
	}
	for i := range want {
		if o[i] != want[i] {
			t.Errorf("point %d: got %v, want %v", i, o[i], want[i])
		}
	}
	if len(closed) != 5 {
		t.Error("input modified")
	}

	for _, bad := range [][]r2.Vec{nil, {{X: 1, Y: 1}, {X: 2, Y: 2}}, {{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 1}}} {
		_, err := outline.Normalize(bad)
		if !errors.Is(err, outline.ErrTooFewPoints) {
			t.Errorf("%v: expected ErrTooFewPoints, got %v", bad, err)
		}
	}
}

func TestResampleNoop(t *testing.T) {
	for _, o := range []outline.Outline{square(10), lShape()} {
		base, err := outline.Normalize(o)
		if err != nil {
			t.Fatal(err)
		}
		r, err := outline.Resample(o, 1)
		if err != nil {
			t.Fatal(err)
		}
		got, err := outline.Normalize(r)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(base) {
			t.Fatalf("length changed: %d != %d", len(got), len(base))
		}
		for i := range base {
			if got[i] != base[i] {
				t.Errorf("point %d: got %v, want %v", i, got[i], base[i])
			}
		}
		if got.Orientation() != base.Orientation() {
			t.Error("winding changed")
		}
	}
}

func TestResampleDensity(t *testing.T) {
	o := lShape()
	for k := 1; k <= 7; k++ {
		r, err := outline.Resample(o, k)
		if err != nil {
			t.Fatal(err)
		}
		if len(r) != k*len(o) {
			t.Errorf("k=%d: got %d points, want %d", k, len(r), k*len(o))
		}
		for i, p := range o {
			if r[i*k] != p {
				t.Errorf("k=%d: original vertex %d not preserved", k, i)
			}
		}
		if math.Abs(r.Area()-o.Area()) > 1e-9 {
			t.Errorf("k=%d: area changed %g != %g", k, r.Area(), o.Area())
		}
	}
	if _, err := outline.Resample(o, 0); err == nil {
		t.Error("expected error for zero subdivisions")
	}
}

func TestAreaOrientation(t *testing.T) {
	o := lShape()
	if got := o.Area(); math.Abs(got-300) > 1e-9 {
		t.Errorf("area: got %g, want 300", got)
	}
	if o.Orientation() != orb.CCW {
		t.Error("expected CCW")
	}
	cw := make(outline.Outline, len(o))
	for i := range o {
		cw[i] = o[len(o)-1-i]
	}
	if cw.Orientation() != orb.CW || cw.Area() >= 0 {
		t.Error("expected CW with negative area")
	}
	if c := cw.CCW(); c.Orientation() != orb.CCW || c[0] != cw[0] {
		t.Error("CCW should reverse winding and keep first point")
	}
}

func TestLocate(t *testing.T) {
	idx := outline.NewIndex(lShape())
	for _, test := range []struct {
		p    r2.Vec
		want outline.Location
	}{
		{r2.Vec{X: 5, Y: 5}, outline.Inside},
		{r2.Vec{X: 15, Y: 5}, outline.Inside},
		{r2.Vec{X: 5, Y: 15}, outline.Inside},
		{r2.Vec{X: 15, Y: 15}, outline.Outside},
		{r2.Vec{X: -1, Y: 5}, outline.Outside},
		{r2.Vec{X: 0, Y: 5}, outline.Boundary},
		{r2.Vec{X: 10, Y: 15}, outline.Boundary},
		{r2.Vec{X: 20, Y: 0}, outline.Boundary},
		// Ray passes exactly through the vertex at (10,10).
		{r2.Vec{X: 5, Y: 10}, outline.Inside},
		{r2.Vec{X: 5, Y: 20}, outline.Boundary},
	} {
		if got := idx.Locate(test.p); got != test.want {
			t.Errorf("%v: got %v, want %v", test.p, got, test.want)
		}
	}
}

func TestDistance(t *testing.T) {
	idx := outline.NewIndex(square(10))
	for _, test := range []struct {
		p    r2.Vec
		want float64
	}{
		{r2.Vec{X: 5, Y: 5}, 5},
		{r2.Vec{X: 2, Y: 7}, 2},
		{r2.Vec{X: 13, Y: 5}, 3},
		{r2.Vec{X: 13, Y: 14}, 5},
	} {
		if got := idx.Distance(test.p); math.Abs(got-test.want) > 1e-9 {
			t.Errorf("%v: got %g, want %g", test.p, got, test.want)
		}
	}
}

func TestSampleInterior(t *testing.T) {
	pts := outline.SampleInterior(square(10), 3)
	// Grid rows at 0, 3, 6 and 9. The ones at 0 lie on the boundary.
	if len(pts) != 9 {
		t.Fatalf("got %d points, want 9: %v", len(pts), pts)
	}
	if pts[0] != (r2.Vec{X: 3, Y: 3}) || pts[1] != (r2.Vec{X: 3, Y: 6}) {
		t.Errorf("unexpected ordering: %v", pts[:2])
	}
	again := outline.SampleInterior(square(10), 3)
	for i := range pts {
		if pts[i] != again[i] {
			t.Fatal("sampling not deterministic")
		}
	}
	for _, p := range outline.SampleInterior(lShape(), 1) {
		if p.X > 10 && p.Y > 10 {
			t.Errorf("point %v outside L shape", p)
		}
		if p.X == 0 || p.Y == 0 {
			t.Errorf("boundary point %v kept", p)
		}
	}
}

func TestShrink(t *testing.T) {
	got, err := outline.Shrink(square(10), 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Area()-36) > 1e-9 {
		t.Errorf("area: got %g, want 36", got.Area())
	}
	for _, p := range got {
		if p.X < 2-1e-9 || p.X > 8+1e-9 || p.Y < 2-1e-9 || p.Y > 8+1e-9 {
			t.Errorf("vertex %v outside expected inner square", p)
		}
	}

	l, err := outline.Shrink(lShape(), 2)
	if err != nil {
		t.Fatal(err)
	}
	// Inner L: (2,2) (18,2) (18,8) (8,8) (8,18) (2,18).
	if math.Abs(l.Area()-(16*6+6*10)) > 1e-9 {
		t.Errorf("L area: got %g, want %g", l.Area(), float64(16*6+6*10))
	}

	// Clockwise input keeps its winding.
	cw := outline.Outline{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}
	in, err := outline.Shrink(cw, 1)
	if err != nil {
		t.Fatal(err)
	}
	if in.Orientation() != orb.CW {
		t.Error("winding not preserved")
	}
}

func TestShrinkCollapse(t *testing.T) {
	for _, d := range []float64{5, 6, 100} {
		_, err := outline.Shrink(square(10), d)
		if !errors.Is(err, outline.ErrCollapsed) {
			t.Errorf("d=%g: expected ErrCollapsed, got %v", d, err)
		}
	}
	// Both arms are narrower than twice the offset.
	thin := outline.Outline{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 2}, {X: 10, Y: 2}, {X: 10, Y: 20}, {X: 0, Y: 20}}
	if _, err := outline.Shrink(thin, 8); !errors.Is(err, outline.ErrCollapsed) {
		t.Errorf("expected collapse, got %v", err)
	}
}

func TestSampleInteriorTooDense(t *testing.T) {
	err := outline.CheckSpacing(square(10), 1e-6)
	if !errors.Is(err, outline.ErrTooManySamples) {
		t.Fatalf("got %v, want ErrTooManySamples", err)
	}
	if pts := outline.SampleInterior(square(10), 1e-6); pts != nil {
		t.Errorf("got %d points for a rejected spacing", len(pts))
	}
	if err := outline.CheckSpacing(square(10), 0.01); err != nil {
		t.Errorf("spacing 0.01: %v", err)
	}
	if err := outline.CheckSpacing(square(10), 0); err == nil {
		t.Error("zero spacing accepted")
	}
}
