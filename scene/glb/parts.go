package glb

import (
	"errors"
	"fmt"
	"os"

	"github.com/fogleman/simplify"
	"github.com/hschendel/stl"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/soypat/keebcase/render"
	"github.com/soypat/keebcase/scene"
	"github.com/soypat/keebcase/solid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Part is a named indexed triangle mesh with a constant colour.
type Part struct {
	Name     string
	Vertices [][3]float32
	Indices  []uint32
	// Color is linear RGBA in [0,1].
	Color [4]float64
}

// RGBA8 converts 8 bit colour channels to a Part colour.
func RGBA8(r, g, b, a uint8) [4]float64 {
	return [4]float64{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}
}

// Colours used for the generated accessories.
var (
	TentingColor  = RGBA8(200, 60, 60, 255)
	PalmRestColor = RGBA8(60, 60, 200, 255)
)

// FromParts builds a document with one root node per part. Each node is
// named after its part and instances a mesh with positions, smooth
// normals, indices and a material of the part's colour.
func FromParts(parts ...Part) (*scene.Document, error) {
	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0", Generator: Generator},
		Scene:  gltf.Index(0),
		Scenes: []*gltf.Scene{{Name: "Parts"}},
	}
	for i, p := range parts {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Name, err)
		}
		pos := modeler.WritePosition(doc, p.Vertices)
		nrm := modeler.WriteNormal(doc, p.normals())
		idx := modeler.WriteIndices(doc, p.Indices)
		c := p.Color
		mat := &gltf.Material{
			Name: p.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaOpaque,
		}
		if c[3] < 1 {
			mat.AlphaMode = gltf.AlphaBlend
		}
		doc.Materials = append(doc.Materials, mat)
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: p.Name,
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]uint32{
					gltf.POSITION: uint32(pos),
					gltf.NORMAL:   uint32(nrm),
				},
				Indices:  gltf.Index(uint32(idx)),
				Material: gltf.Index(uint32(i)),
				Mode:     gltf.PrimitiveTriangles,
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     p.Name,
			Mesh:     gltf.Index(uint32(i)),
			Matrix:   identity,
			Rotation: noRotation,
			Scale:    unitScale,
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}
	return fromGLTF(doc)
}

// PartFromMesh converts a generated solid into a part.
func PartFromMesh(name string, m solid.Mesh, color [4]float64) Part {
	p := Part{
		Name:     name,
		Vertices: make([][3]float32, len(m.Vertices)),
		Indices:  make([]uint32, 0, 3*len(m.Faces)),
		Color:    color,
	}
	for i, v := range m.Vertices {
		p.Vertices[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	for _, f := range m.Faces {
		p.Indices = append(p.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return p
}

// LoadSTLPart reads an ASCII or binary STL file into a part, welding
// coincident vertices. A decimate factor in (0,1) reduces the triangle count
// to that fraction of the original.
func LoadSTLPart(name, path string, color [4]float64, decimate float64) (Part, error) {
	if _, err := os.Stat(path); err != nil {
		return Part{}, err
	}
	solidSTL, err := stl.ReadFile(path)
	if err != nil {
		return Part{}, fmt.Errorf("reading %s: %w", path, err)
	}
	n := len(solidSTL.Triangles)
	switch {
	case n == 0:
		return Part{}, fmt.Errorf("%s: %w", path, render.ErrEmptyModel)
	case n > render.MaxFacets:
		return Part{}, fmt.Errorf("%s: %d facets: %w", path, n, render.ErrTooManyFacets)
	}
	tris := make([][3][3]float32, n)
	for i, t := range solidSTL.Triangles {
		for k := range t.Vertices {
			tris[i][k] = t.Vertices[k]
		}
	}
	if decimate > 0 && decimate < 1 {
		tris = simplifyTriangles(tris, decimate)
	}
	p := weld(tris)
	p.Name = name
	p.Color = color
	if len(p.Indices) == 0 {
		return Part{}, fmt.Errorf("%s: all triangles degenerate", path)
	}
	return p, nil
}

func simplifyTriangles(tris [][3][3]float32, factor float64) [][3][3]float32 {
	vec := func(v [3]float32) simplify.Vector {
		return simplify.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	f32 := func(v simplify.Vector) [3]float32 {
		return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	in := make([]*simplify.Triangle, len(tris))
	for i, t := range tris {
		in[i] = simplify.NewTriangle(vec(t[0]), vec(t[1]), vec(t[2]))
	}
	out := simplify.NewMesh(in).Simplify(factor)
	res := make([][3][3]float32, len(out.Triangles))
	for i, t := range out.Triangles {
		res[i] = [3][3]float32{f32(t.V1), f32(t.V2), f32(t.V3)}
	}
	return res
}

// weld indexes triangle soup by exact vertex position and drops triangles
// that collapse onto fewer than three vertices.
func weld(tris [][3][3]float32) Part {
	var p Part
	lookup := make(map[[3]float32]uint32, len(tris))
	for _, t := range tris {
		var f [3]uint32
		for k, v := range t {
			i, ok := lookup[v]
			if !ok {
				i = uint32(len(p.Vertices))
				lookup[v] = i
				p.Vertices = append(p.Vertices, v)
			}
			f[k] = i
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		p.Indices = append(p.Indices, f[0], f[1], f[2])
	}
	return p
}

func (p Part) validate() error {
	switch {
	case len(p.Vertices) == 0:
		return errors.New("no vertices")
	case len(p.Indices) == 0 || len(p.Indices)%3 != 0:
		return fmt.Errorf("index count %d not a positive multiple of 3", len(p.Indices))
	}
	for _, i := range p.Indices {
		if int(i) >= len(p.Vertices) {
			return fmt.Errorf("index %d out of range (have %d vertices)", i, len(p.Vertices))
		}
	}
	return nil
}

// normals returns area weighted vertex normals.
func (p Part) normals() [][3]float32 {
	acc := make([]r3.Vec, len(p.Vertices))
	vec := func(i uint32) r3.Vec {
		v := p.Vertices[i]
		return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	for f := 0; f+2 < len(p.Indices); f += 3 {
		a, b, c := p.Indices[f], p.Indices[f+1], p.Indices[f+2]
		// Cross product length is twice the face area.
		n := r3.Cross(r3.Sub(vec(b), vec(a)), r3.Sub(vec(c), vec(a)))
		acc[a] = r3.Add(acc[a], n)
		acc[b] = r3.Add(acc[b], n)
		acc[c] = r3.Add(acc[c], n)
	}
	out := make([][3]float32, len(acc))
	for i, n := range acc {
		if r3.Norm(n) == 0 {
			out[i] = [3]float32{0, 0, 1}
			continue
		}
		n = r3.Unit(n)
		out[i] = [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
	}
	return out
}
