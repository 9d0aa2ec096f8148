// Package scene is a minimal glTF scene graph: nodes, meshes, materials,
// accessors and buffer views over a single binary buffer. It holds only
// what merging, rescaling and inspecting scenes need; reading and writing
// files lives in package scene/glb.
package scene

import "fmt"

// Accessor component types, as numbered by glTF.
const (
	ComponentByte   = 5120
	ComponentUbyte  = 5121
	ComponentShort  = 5122
	ComponentUshort = 5123
	ComponentUint   = 5125
	ComponentFloat  = 5126
)

// Accessor element types.
const (
	TypeScalar = "SCALAR"
	TypeVec2   = "VEC2"
	TypeVec3   = "VEC3"
	TypeVec4   = "VEC4"
	TypeMat2   = "MAT2"
	TypeMat3   = "MAT3"
	TypeMat4   = "MAT4"
)

// Primitive modes.
const (
	ModePoints = iota
	ModeLines
	ModeLineLoop
	ModeLineStrip
	ModeTriangles
	ModeTriangleStrip
	ModeTriangleFan
)

// Material alpha modes.
const (
	AlphaOpaque = "OPAQUE"
	AlphaMask   = "MASK"
	AlphaBlend  = "BLEND"
)

// Buffer view targets.
const (
	TargetNone         = 0
	TargetArray        = 34962
	TargetElementArray = 34963
)

// Attribute names used by this package.
const (
	AttrPosition = "POSITION"
	AttrNormal   = "NORMAL"
)

// Document is a glTF scene with its binary payload flattened into Buffer.
type Document struct {
	Generator   string
	Scene       int // Default scene index. Ignored when Scenes is empty.
	Scenes      []Scene
	Nodes       []Node
	Meshes      []Mesh
	Materials   []Material
	Accessors   []Accessor
	BufferViews []BufferView
	Buffer      []byte
}

type Scene struct {
	Name  string
	Nodes []int
}

// Node is a transform in the scene graph. Nil transform fields take their
// glTF defaults. Matrix and TRS are exclusive.
type Node struct {
	Name        string
	Mesh        *int
	Children    []int
	Translation *[3]float64
	Rotation    *[4]float64
	Scale       *[3]float64
	Matrix      *[16]float64
}

type Mesh struct {
	Name       string
	Primitives []Primitive
}

type Primitive struct {
	Attributes map[string]int
	Indices    *int
	Material   *int
	Mode       int
}

type Accessor struct {
	Name          string
	BufferView    *int
	ByteOffset    int
	ComponentType int
	Normalized    bool
	Count         int
	Type          string
	Min, Max      []float64
}

type BufferView struct {
	ByteOffset int
	ByteLength int
	ByteStride int
	Target     int
}

// Material is a metallic-roughness material with a constant base colour.
type Material struct {
	Name        string
	BaseColor   [4]float64
	Metallic    float64
	Roughness   float64
	Emissive    [3]float64
	AlphaMode   string
	AlphaCutoff *float64
	DoubleSided bool
}

// Index returns a pointer to i, for optional index fields.
func Index(i int) *int { return &i }

// Counts returns the number of nodes, meshes, accessors and buffer views.
func (d *Document) Counts() (nodes, meshes, accessors, views int) {
	return len(d.Nodes), len(d.Meshes), len(d.Accessors), len(d.BufferViews)
}

// Roots returns the root nodes of the default scene.
func (d *Document) Roots() []int {
	if d.Scene < 0 || d.Scene >= len(d.Scenes) {
		return nil
	}
	return d.Scenes[d.Scene].Nodes
}

// parentless returns the nodes that are no other node's child, in index order.
func (d *Document) parentless() []int {
	hasParent := make([]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		Generator:   d.Generator,
		Scene:       d.Scene,
		Scenes:      make([]Scene, len(d.Scenes)),
		Nodes:       make([]Node, len(d.Nodes)),
		Meshes:      make([]Mesh, len(d.Meshes)),
		Materials:   append([]Material(nil), d.Materials...),
		Accessors:   make([]Accessor, len(d.Accessors)),
		BufferViews: append([]BufferView(nil), d.BufferViews...),
		Buffer:      append([]byte(nil), d.Buffer...),
	}
	for i, s := range d.Scenes {
		c.Scenes[i] = Scene{Name: s.Name, Nodes: append([]int(nil), s.Nodes...)}
	}
	for i, n := range d.Nodes {
		c.Nodes[i] = n.clone()
	}
	for i, m := range d.Meshes {
		cm := Mesh{Name: m.Name, Primitives: make([]Primitive, len(m.Primitives))}
		for j, p := range m.Primitives {
			cm.Primitives[j] = p.clone()
		}
		c.Meshes[i] = cm
	}
	for i, a := range d.Accessors {
		a.BufferView = cloneInt(a.BufferView)
		a.Min = append([]float64(nil), a.Min...)
		a.Max = append([]float64(nil), a.Max...)
		c.Accessors[i] = a
	}
	for i := range c.Materials {
		if cut := c.Materials[i].AlphaCutoff; cut != nil {
			v := *cut
			c.Materials[i].AlphaCutoff = &v
		}
	}
	return c
}

func (n Node) clone() Node {
	n.Mesh = cloneInt(n.Mesh)
	n.Children = append([]int(nil), n.Children...)
	if n.Translation != nil {
		v := *n.Translation
		n.Translation = &v
	}
	if n.Rotation != nil {
		v := *n.Rotation
		n.Rotation = &v
	}
	if n.Scale != nil {
		v := *n.Scale
		n.Scale = &v
	}
	if n.Matrix != nil {
		v := *n.Matrix
		n.Matrix = &v
	}
	return n
}

func (p Primitive) clone() Primitive {
	attrs := make(map[string]int, len(p.Attributes))
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	p.Attributes = attrs
	p.Indices = cloneInt(p.Indices)
	p.Material = cloneInt(p.Material)
	return p
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ComponentSize returns the size in bytes of a component type, or zero if
// the type is unknown.
func ComponentSize(componentType int) int {
	switch componentType {
	case ComponentByte, ComponentUbyte:
		return 1
	case ComponentShort, ComponentUshort:
		return 2
	case ComponentUint, ComponentFloat:
		return 4
	}
	return 0
}

// Components returns the number of components of an accessor type, or zero
// if the type is unknown.
func Components(typ string) int {
	switch typ {
	case TypeScalar:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3:
		return 3
	case TypeVec4, TypeMat2:
		return 4
	case TypeMat3:
		return 9
	case TypeMat4:
		return 16
	}
	return 0
}

// ElementSize is the packed size in bytes of one element of a.
func (a Accessor) ElementSize() int {
	return ComponentSize(a.ComponentType) * Components(a.Type)
}

// stride returns the distance between consecutive elements of a in view.
func (a Accessor) stride(view BufferView) int {
	if view.ByteStride > 0 {
		return view.ByteStride
	}
	return a.ElementSize()
}

func (n Node) String() string {
	if n.Name == "" {
		return "<unnamed>"
	}
	return fmt.Sprintf("%q", n.Name)
}
