package scene

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Rescale returns a copy of d with every position multiplied by factor.
// Accessors referenced as POSITION are scaled in the buffer and their
// bounds recomputed. Node translations, including the translation column
// of node matrices, are scaled so parts keep their relative placement.
func Rescale(d *Document, factor float64) (*Document, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("rescale: factor must be positive and finite, got %g", factor)
	}
	if err := Validate(d); err != nil {
		return nil, err
	}
	out := d.Clone()
	positions := make(map[int]bool)
	for _, m := range out.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes[AttrPosition]; ok {
				positions[a] = true
			}
		}
	}
	for ai := range positions {
		a := &out.Accessors[ai]
		if a.Type != TypeVec3 || a.ComponentType != ComponentFloat {
			return nil, fmt.Errorf("rescale: accessor %d is %s/%d, want float %s", ai, a.Type, a.ComponentType, TypeVec3)
		}
		if a.BufferView == nil {
			// All zero positions stay zero.
			continue
		}
		view := out.BufferViews[*a.BufferView]
		stride := a.stride(view)
		start := view.ByteOffset + a.ByteOffset
		lo := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
		hi := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for i := 0; i < a.Count; i++ {
			b := out.Buffer[start+i*stride:]
			for k := 0; k < 3; k++ {
				v := float32(float64(getFloat32(b[4*k:])) * factor)
				putFloat32(b[4*k:], v)
				lo[k] = math.Min(lo[k], float64(v))
				hi[k] = math.Max(hi[k], float64(v))
			}
		}
		a.Min, a.Max = lo, hi
	}
	for i := range out.Nodes {
		n := &out.Nodes[i]
		switch {
		case n.Matrix != nil:
			n.Matrix[12] *= factor
			n.Matrix[13] *= factor
			n.Matrix[14] *= factor
		case n.Translation != nil:
			n.Translation[0] *= factor
			n.Translation[1] *= factor
			n.Translation[2] *= factor
		}
	}
	return out, nil
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
