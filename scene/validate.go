package scene

import (
	"errors"
	"fmt"
)

// ErrInvalid wraps every problem reported by Validate.
var ErrInvalid = errors.New("invalid scene")

// Validate checks every cross reference of d and every byte range into its
// buffer. All problems found are joined into the returned error.
func Validate(d *Document) error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	inRange := func(i, n int) bool { return i >= 0 && i < n }

	if len(d.Scenes) > 0 && !inRange(d.Scene, len(d.Scenes)) {
		bad("default scene %d out of range (have %d)", d.Scene, len(d.Scenes))
	}
	parent := make([]int, len(d.Nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range d.Nodes {
		if n.Mesh != nil && !inRange(*n.Mesh, len(d.Meshes)) {
			bad("node %d: mesh %d out of range (have %d)", i, *n.Mesh, len(d.Meshes))
		}
		if n.Matrix != nil && (n.Translation != nil || n.Rotation != nil || n.Scale != nil) {
			bad("node %d: both matrix and TRS set", i)
		}
		for _, c := range n.Children {
			switch {
			case !inRange(c, len(d.Nodes)):
				bad("node %d: child %d out of range (have %d)", i, c, len(d.Nodes))
			case c == i:
				bad("node %d: is its own child", i)
			case parent[c] >= 0:
				bad("node %d: has parents %d and %d", c, parent[c], i)
			default:
				parent[c] = i
			}
		}
	}
	for i, n := range d.Nodes {
		if cycles(parent, i) {
			bad("node %d %s: part of a cycle", i, n)
		}
	}
	for si, s := range d.Scenes {
		seen := make(map[int]bool, len(s.Nodes))
		for _, r := range s.Nodes {
			switch {
			case !inRange(r, len(d.Nodes)):
				bad("scene %d: root node %d out of range (have %d)", si, r, len(d.Nodes))
			case parent[r] >= 0:
				bad("scene %d: root node %d is a child of node %d", si, r, parent[r])
			case seen[r]:
				bad("scene %d: root node %d listed twice", si, r)
			}
			seen[r] = true
		}
	}

	for i, m := range d.Meshes {
		if len(m.Primitives) == 0 {
			bad("mesh %d: no primitives", i)
		}
		for j, p := range m.Primitives {
			if _, ok := p.Attributes[AttrPosition]; !ok {
				bad("mesh %d primitive %d: no %s attribute", i, j, AttrPosition)
			}
			for name, a := range p.Attributes {
				if !inRange(a, len(d.Accessors)) {
					bad("mesh %d primitive %d: %s accessor %d out of range (have %d)", i, j, name, a, len(d.Accessors))
				}
			}
			if p.Indices != nil && !inRange(*p.Indices, len(d.Accessors)) {
				bad("mesh %d primitive %d: indices accessor %d out of range (have %d)", i, j, *p.Indices, len(d.Accessors))
			}
			if p.Material != nil && !inRange(*p.Material, len(d.Materials)) {
				bad("mesh %d primitive %d: material %d out of range (have %d)", i, j, *p.Material, len(d.Materials))
			}
			if !inRange(p.Mode, ModeTriangleFan+1) {
				bad("mesh %d primitive %d: unknown mode %d", i, j, p.Mode)
			}
		}
	}

	for i, v := range d.BufferViews {
		switch {
		case v.ByteOffset < 0 || v.ByteLength <= 0:
			bad("buffer view %d: bad range offset=%d length=%d", i, v.ByteOffset, v.ByteLength)
		case v.ByteOffset+v.ByteLength > len(d.Buffer):
			bad("buffer view %d: range [%d,%d) exceeds buffer of %d bytes", i, v.ByteOffset, v.ByteOffset+v.ByteLength, len(d.Buffer))
		}
		if v.ByteStride != 0 && (v.ByteStride < 4 || v.ByteStride > 252 || v.ByteStride%4 != 0) {
			bad("buffer view %d: bad byte stride %d", i, v.ByteStride)
		}
	}
	for i, a := range d.Accessors {
		size := a.ElementSize()
		if size == 0 {
			bad("accessor %d: unknown layout %s/%d", i, a.Type, a.ComponentType)
			continue
		}
		if a.Count <= 0 {
			bad("accessor %d: count %d", i, a.Count)
			continue
		}
		if a.BufferView == nil {
			continue
		}
		if !inRange(*a.BufferView, len(d.BufferViews)) {
			bad("accessor %d: buffer view %d out of range (have %d)", i, *a.BufferView, len(d.BufferViews))
			continue
		}
		v := d.BufferViews[*a.BufferView]
		end := a.ByteOffset + a.stride(v)*(a.Count-1) + size
		if a.ByteOffset < 0 || end > v.ByteLength {
			bad("accessor %d: needs %d bytes of buffer view %d with %d", i, end, *a.BufferView, v.ByteLength)
		}
		if a.ByteOffset%ComponentSize(a.ComponentType) != 0 {
			bad("accessor %d: misaligned byte offset %d", i, a.ByteOffset)
		}
	}
	for i, m := range d.Materials {
		switch m.AlphaMode {
		case "", AlphaOpaque, AlphaMask, AlphaBlend:
		default:
			bad("material %d: unknown alpha mode %q", i, m.AlphaMode)
		}
	}
	return errors.Join(errs...)
}

// cycles reports whether following parents from i returns to i.
func cycles(parent []int, i int) bool {
	p := parent[i]
	for steps := 0; p >= 0 && steps < len(parent); steps++ {
		if p == i {
			return true
		}
		p = parent[p]
	}
	return false
}
