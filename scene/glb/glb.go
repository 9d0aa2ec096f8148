// Package glb reads and writes scene documents as glTF files and builds
// scenes from triangle meshes.
package glb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/soypat/keebcase/scene"
)

// Generator is written to the asset metadata of saved files.
const Generator = "keebcase"

// ErrUnsupported is returned when loading a file that uses glTF features
// the scene model does not carry.
var ErrUnsupported = errors.New("unsupported glTF feature")

var (
	identity      = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	noRotation    = [4]float32{0, 0, 0, 1}
	unitScale     = [3]float32{1, 1, 1}
	noTranslation = [3]float32{}
)

// Load reads a .glb or .gltf file. Multiple buffers are flattened into the
// document's single buffer.
func Load(path string) (*scene.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	d, err := fromGLTF(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Save validates d and writes it as binary glTF to path. The file is
// replaced atomically.
func Save(path string, d *scene.Document) error {
	if err := scene.Validate(d); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	tmp.Close()
	if err = gltf.SaveBinary(toGLTF(d), name); err != nil {
		os.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func fromGLTF(doc *gltf.Document) (*scene.Document, error) {
	switch {
	case len(doc.Images) > 0:
		return nil, fmt.Errorf("%w: images", ErrUnsupported)
	case len(doc.Skins) > 0:
		return nil, fmt.Errorf("%w: skins", ErrUnsupported)
	case len(doc.Animations) > 0:
		return nil, fmt.Errorf("%w: animations", ErrUnsupported)
	}
	d := &scene.Document{Generator: doc.Asset.Generator}

	base := make([]int, len(doc.Buffers))
	for i, b := range doc.Buffers {
		if len(b.Data) < int(b.ByteLength) {
			return nil, fmt.Errorf("buffer %d: %d of %d bytes loaded", i, len(b.Data), b.ByteLength)
		}
		for len(d.Buffer)%4 != 0 {
			d.Buffer = append(d.Buffer, 0)
		}
		base[i] = len(d.Buffer)
		d.Buffer = append(d.Buffer, b.Data[:b.ByteLength]...)
	}
	for i, v := range doc.BufferViews {
		if int(v.Buffer) >= len(base) {
			return nil, fmt.Errorf("buffer view %d: buffer %d out of range", i, v.Buffer)
		}
		d.BufferViews = append(d.BufferViews, scene.BufferView{
			ByteOffset: base[v.Buffer] + int(v.ByteOffset),
			ByteLength: int(v.ByteLength),
			ByteStride: int(v.ByteStride),
			Target:     targetCode(v.Target),
		})
	}
	for i, a := range doc.Accessors {
		if a.Sparse != nil {
			return nil, fmt.Errorf("%w: sparse accessor %d", ErrUnsupported, i)
		}
		d.Accessors = append(d.Accessors, scene.Accessor{
			Name:          a.Name,
			BufferView:    index(a.BufferView),
			ByteOffset:    int(a.ByteOffset),
			ComponentType: componentCode(a.ComponentType),
			Normalized:    a.Normalized,
			Count:         int(a.Count),
			Type:          accessorTypeName(a.Type),
			Min:           f64s(a.Min),
			Max:           f64s(a.Max),
		})
	}
	for i, m := range doc.Meshes {
		sm := scene.Mesh{Name: m.Name}
		for _, p := range m.Primitives {
			if len(p.Targets) > 0 {
				return nil, fmt.Errorf("%w: morph targets in mesh %d", ErrUnsupported, i)
			}
			attrs := make(map[string]int, len(p.Attributes))
			for k, v := range p.Attributes {
				attrs[k] = int(v)
			}
			sm.Primitives = append(sm.Primitives, scene.Primitive{
				Attributes: attrs,
				Indices:    index(p.Indices),
				Material:   index(p.Material),
				Mode:       modeCode(p.Mode),
			})
		}
		d.Meshes = append(d.Meshes, sm)
	}
	for _, m := range doc.Materials {
		d.Materials = append(d.Materials, fromMaterial(m))
	}
	for _, n := range doc.Nodes {
		d.Nodes = append(d.Nodes, fromNode(n))
	}
	for _, s := range doc.Scenes {
		sc := scene.Scene{Name: s.Name}
		for _, r := range s.Nodes {
			sc.Nodes = append(sc.Nodes, int(r))
		}
		d.Scenes = append(d.Scenes, sc)
	}
	if doc.Scene != nil {
		d.Scene = int(*doc.Scene)
	}
	return d, nil
}

func toGLTF(d *scene.Document) *gltf.Document {
	doc := &gltf.Document{
		Asset: gltf.Asset{Version: "2.0", Generator: Generator},
	}
	if len(d.Buffer) > 0 {
		doc.Buffers = []*gltf.Buffer{{ByteLength: uint32(len(d.Buffer)), Data: d.Buffer}}
	}
	for _, v := range d.BufferViews {
		doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
			Buffer:     0,
			ByteOffset: uint32(v.ByteOffset),
			ByteLength: uint32(v.ByteLength),
			ByteStride: uint32(v.ByteStride),
			Target:     target(v.Target),
		})
	}
	for _, a := range d.Accessors {
		doc.Accessors = append(doc.Accessors, &gltf.Accessor{
			Name:          a.Name,
			BufferView:    uindex(a.BufferView),
			ByteOffset:    uint32(a.ByteOffset),
			ComponentType: componentType(a.ComponentType),
			Normalized:    a.Normalized,
			Count:         uint32(a.Count),
			Type:          accessorType(a.Type),
			Min:           f32s(a.Min),
			Max:           f32s(a.Max),
		})
	}
	for _, m := range d.Meshes {
		gm := &gltf.Mesh{Name: m.Name}
		for _, p := range m.Primitives {
			attrs := make(gltf.Attribute, len(p.Attributes))
			for k, v := range p.Attributes {
				attrs[k] = uint32(v)
			}
			gm.Primitives = append(gm.Primitives, &gltf.Primitive{
				Attributes: attrs,
				Indices:    uindex(p.Indices),
				Material:   uindex(p.Material),
				Mode:       mode(p.Mode),
			})
		}
		doc.Meshes = append(doc.Meshes, gm)
	}
	for _, m := range d.Materials {
		doc.Materials = append(doc.Materials, toMaterial(m))
	}
	for _, n := range d.Nodes {
		doc.Nodes = append(doc.Nodes, toNode(n))
	}
	for _, s := range d.Scenes {
		gs := &gltf.Scene{Name: s.Name}
		for _, r := range s.Nodes {
			gs.Nodes = append(gs.Nodes, uint32(r))
		}
		doc.Scenes = append(doc.Scenes, gs)
	}
	if len(d.Scenes) > 0 {
		doc.Scene = gltf.Index(uint32(d.Scene))
	}
	return doc
}

func fromNode(n *gltf.Node) scene.Node {
	sn := scene.Node{Name: n.Name, Mesh: index(n.Mesh)}
	for _, c := range n.Children {
		sn.Children = append(sn.Children, int(c))
	}
	if n.Matrix != identity && n.Matrix != ([16]float32{}) {
		var m [16]float64
		for i, v := range n.Matrix {
			m[i] = float64(v)
		}
		sn.Matrix = &m
	}
	if n.Translation != noTranslation {
		t := [3]float64{float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2])}
		sn.Translation = &t
	}
	if n.Rotation != noRotation && n.Rotation != ([4]float32{}) {
		r := [4]float64{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2]), float64(n.Rotation[3])}
		sn.Rotation = &r
	}
	if n.Scale != unitScale && n.Scale != ([3]float32{}) {
		s := [3]float64{float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2])}
		sn.Scale = &s
	}
	return sn
}

func toNode(n scene.Node) *gltf.Node {
	gn := &gltf.Node{
		Name:     n.Name,
		Mesh:     uindex(n.Mesh),
		Matrix:   identity,
		Rotation: noRotation,
		Scale:    unitScale,
	}
	for _, c := range n.Children {
		gn.Children = append(gn.Children, uint32(c))
	}
	if n.Matrix != nil {
		for i, v := range n.Matrix {
			gn.Matrix[i] = float32(v)
		}
	}
	if n.Translation != nil {
		for i, v := range n.Translation {
			gn.Translation[i] = float32(v)
		}
	}
	if n.Rotation != nil {
		for i, v := range n.Rotation {
			gn.Rotation[i] = float32(v)
		}
	}
	if n.Scale != nil {
		for i, v := range n.Scale {
			gn.Scale[i] = float32(v)
		}
	}
	return gn
}

func fromMaterial(m *gltf.Material) scene.Material {
	sm := scene.Material{
		Name:        m.Name,
		BaseColor:   [4]float64{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		DoubleSided: m.DoubleSided,
	}
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if c := pbr.BaseColorFactor; c != nil {
			sm.BaseColor = [4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}
		}
		if pbr.MetallicFactor != nil {
			sm.Metallic = float64(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			sm.Roughness = float64(*pbr.RoughnessFactor)
		}
	}
	for i, v := range m.EmissiveFactor {
		sm.Emissive[i] = float64(v)
	}
	switch m.AlphaMode {
	case gltf.AlphaBlend:
		sm.AlphaMode = scene.AlphaBlend
	case gltf.AlphaMask:
		sm.AlphaMode = scene.AlphaMask
	default:
		sm.AlphaMode = scene.AlphaOpaque
	}
	if m.AlphaCutoff != nil {
		c := float64(*m.AlphaCutoff)
		sm.AlphaCutoff = &c
	}
	return sm
}

func toMaterial(m scene.Material) *gltf.Material {
	c := m.BaseColor
	gm := &gltf.Material{
		Name: m.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])},
			MetallicFactor:  gltf.Float(float32(m.Metallic)),
			RoughnessFactor: gltf.Float(float32(m.Roughness)),
		},
		EmissiveFactor: [3]float32{float32(m.Emissive[0]), float32(m.Emissive[1]), float32(m.Emissive[2])},
		DoubleSided:    m.DoubleSided,
	}
	switch m.AlphaMode {
	case scene.AlphaBlend:
		gm.AlphaMode = gltf.AlphaBlend
	case scene.AlphaMask:
		gm.AlphaMode = gltf.AlphaMask
		if m.AlphaCutoff != nil {
			gm.AlphaCutoff = gltf.Float(float32(*m.AlphaCutoff))
		}
	default:
		gm.AlphaMode = gltf.AlphaOpaque
	}
	return gm
}

func index(p *uint32) *int {
	if p == nil {
		return nil
	}
	return scene.Index(int(*p))
}

func uindex(p *int) *uint32 {
	if p == nil {
		return nil
	}
	return gltf.Index(uint32(*p))
}

func f64s(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func f32s(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
