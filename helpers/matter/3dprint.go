// Package matter compensates printed parts for material shrinkage.
package matter

import (
	"fmt"
	"strings"

	"github.com/soypat/keebcase/solid"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// PLA (polylactic acid) is the most widely used plastic filament material in 3D printing.
	PLA = ViscousMaterial{shrink: 0.2e-2, pullShrink: .45} // 0.2% shrinkage
	// PETG shrinks a little more than PLA as it cools.
	PETG = ViscousMaterial{shrink: 0.4e-2, pullShrink: .5}
	// ABS shrinks noticeably and pulls in holes.
	ABS = ViscousMaterial{shrink: 0.7e-2, pullShrink: .6}
)

type ViscousMaterial struct {
	// shrink is the thermal contraction shrinkage of a material once the material
	// cools to room temperature after the heated bed is turned off.
	shrink float64
	// pullShrink takes into account viscoelastic shrinkage.
	pullShrink float64
}

// ByName returns the material called name, ignoring case. The empty name
// and "none" return ok=false with no error.
func ByName(name string) (m ViscousMaterial, ok bool, err error) {
	switch strings.ToLower(name) {
	case "", "none":
		return ViscousMaterial{}, false, nil
	case "pla":
		return PLA, true, nil
	case "petg":
		return PETG, true, nil
	case "abs":
		return ABS, true, nil
	}
	return ViscousMaterial{}, false, fmt.Errorf("unknown material %q", name)
}

// ScaleFactor is the uniform scale that cancels the thermal shrinkage.
func (m ViscousMaterial) ScaleFactor() float64 {
	return 1 / (1 - m.shrink)
}

// Scale returns a copy of mesh scaled about the origin so the printed part
// comes out at the modelled size.
func (m ViscousMaterial) Scale(mesh solid.Mesh) solid.Mesh {
	scale := m.ScaleFactor()
	out := solid.Mesh{
		Vertices: make([]r3.Vec, len(mesh.Vertices)),
		Faces:    append([][3]int(nil), mesh.Faces...),
	}
	for i, v := range mesh.Vertices {
		out.Vertices[i] = r3.Scale(scale, v)
	}
	return out
}

// InternalDimScale returns the dimension to model for a hole or slot that
// must measure real once printed.
func (m ViscousMaterial) InternalDimScale(real float64) float64 {
	if real <= 0 {
		panic("InternalDimScale only works for non-zero dimensions")
	}
	return real*(m.shrink+1) + m.pullShrink
}
