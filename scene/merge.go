package scene

import (
	"errors"
	"fmt"
)

// DefaultAlpha is the opacity forced on merged materials when
// MergeOptions.Alpha is zero.
const DefaultAlpha = 0.4

// DefaultInclude lists the part nodes promoted to scene roots by default.
var DefaultInclude = []string{"Case", "L_Cover", "Tenting_System", "Palm_Rest"}

// MergeOptions controls how Merge splices two scenes.
type MergeOptions struct {
	// Alpha is forced onto every material with BLEND mode. Zero uses
	// DefaultAlpha. One leaves materials untouched.
	Alpha float64
	// Include names nodes that become roots of the merged scene when they
	// have no parent and are not roots already.
	Include []string
	// Offsets are added to the translation of nodes with the given name.
	Offsets map[string][3]float64
	// DefaultColor is given to the material synthesized for primitives that
	// have none. The zero value uses a light grey.
	DefaultColor [3]float64
}

// Merge returns a new document holding primary with the content of
// secondary appended. Secondary accessors, buffer views, meshes, materials
// and nodes are re-indexed by the counts of the primary and secondary
// buffer views are shifted past the primary buffer. Neither input is
// modified. The result is validated before it is returned.
func Merge(primary, secondary *Document, opts MergeOptions) (*Document, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("merge: nil document")
	}
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("merge: alpha %g outside [0,1]", opts.Alpha)
	}
	if err := Validate(primary); err != nil {
		return nil, fmt.Errorf("primary scene: %w", err)
	}
	if err := Validate(secondary); err != nil {
		return nil, fmt.Errorf("secondary scene: %w", err)
	}
	out := primary.Clone()
	sec := secondary.Clone()

	nodeOff, meshOff, accOff, viewOff := out.Counts()
	matOff := len(out.Materials)

	// Buffer views need 4 byte alignment for float and uint32 data.
	for len(out.Buffer)%4 != 0 {
		out.Buffer = append(out.Buffer, 0)
	}
	byteOff := len(out.Buffer)
	out.Buffer = append(out.Buffer, sec.Buffer...)
	for _, v := range sec.BufferViews {
		v.ByteOffset += byteOff
		out.BufferViews = append(out.BufferViews, v)
	}
	for _, a := range sec.Accessors {
		if a.BufferView != nil {
			*a.BufferView += viewOff
		}
		out.Accessors = append(out.Accessors, a)
	}
	out.Materials = append(out.Materials, sec.Materials...)

	defaultMat := -1
	for _, m := range sec.Meshes {
		for j := range m.Primitives {
			p := &m.Primitives[j]
			for name := range p.Attributes {
				p.Attributes[name] += accOff
			}
			if p.Indices != nil {
				*p.Indices += accOff
			}
			switch {
			case p.Material != nil:
				*p.Material += matOff
			default:
				if defaultMat < 0 {
					defaultMat = len(out.Materials)
					out.Materials = append(out.Materials, defaultMaterial(opts.DefaultColor, alpha))
				}
				p.Material = Index(defaultMat)
			}
		}
		out.Meshes = append(out.Meshes, m)
	}
	for _, n := range sec.Nodes {
		if n.Mesh != nil {
			*n.Mesh += meshOff
		}
		for k := range n.Children {
			n.Children[k] += nodeOff
		}
		out.Nodes = append(out.Nodes, n)
	}

	if len(out.Scenes) == 0 {
		var prim []int
		for _, r := range out.parentless() {
			if r < nodeOff {
				prim = append(prim, r)
			}
		}
		out.Scenes = []Scene{{Name: "Scene", Nodes: prim}}
		out.Scene = 0
	}
	root := &out.Scenes[out.Scene]
	secRoots := sec.Roots()
	if len(sec.Scenes) == 0 {
		secRoots = sec.parentless()
	}
	for _, r := range secRoots {
		root.Nodes = append(root.Nodes, r+nodeOff)
	}
	promoteRoots(out, root, opts.Include)

	for i := range out.Nodes {
		if off, ok := opts.Offsets[out.Nodes[i].Name]; ok {
			translate(&out.Nodes[i], off)
		}
	}
	if alpha < 1 {
		for i := range out.Materials {
			out.Materials[i].BaseColor[3] = alpha
			out.Materials[i].AlphaMode = AlphaBlend
			out.Materials[i].AlphaCutoff = nil
		}
	}
	if err := Validate(out); err != nil {
		return nil, fmt.Errorf("merged scene: %w", err)
	}
	return out, nil
}

// promoteRoots adds the parentless nodes named in include to root.
func promoteRoots(d *Document, root *Scene, include []string) {
	if len(include) == 0 {
		return
	}
	want := make(map[string]bool, len(include))
	for _, name := range include {
		want[name] = true
	}
	isRoot := make(map[int]bool, len(root.Nodes))
	for _, r := range root.Nodes {
		isRoot[r] = true
	}
	for _, i := range d.parentless() {
		if want[d.Nodes[i].Name] && !isRoot[i] {
			root.Nodes = append(root.Nodes, i)
			isRoot[i] = true
		}
	}
}

func translate(n *Node, off [3]float64) {
	if n.Matrix != nil {
		n.Matrix[12] += off[0]
		n.Matrix[13] += off[1]
		n.Matrix[14] += off[2]
		return
	}
	var t [3]float64
	if n.Translation != nil {
		t = *n.Translation
	}
	t[0] += off[0]
	t[1] += off[1]
	t[2] += off[2]
	n.Translation = &t
}

func defaultMaterial(color [3]float64, alpha float64) Material {
	if color == ([3]float64{}) {
		color = [3]float64{0.8, 0.8, 0.8}
	}
	return Material{
		Name:        "default",
		BaseColor:   [4]float64{color[0], color[1], color[2], alpha},
		Metallic:    0,
		Roughness:   1,
		AlphaMode:   AlphaBlend,
		DoubleSided: true,
	}
}
