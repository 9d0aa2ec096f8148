package glb

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/keebcase/render"
	"github.com/soypat/keebcase/scene"
	"github.com/soypat/keebcase/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func tetraTriangles() []render.Triangle3 {
	a := r3.Vec{X: 0, Y: 0, Z: 0}
	b := r3.Vec{X: 1, Y: 0, Z: 0}
	c := r3.Vec{X: 0, Y: 1, Z: 0}
	d := r3.Vec{X: 0, Y: 0, Z: 1}
	return []render.Triangle3{
		{V: [3]r3.Vec{a, c, b}},
		{V: [3]r3.Vec{a, b, d}},
		{V: [3]r3.Vec{a, d, c}},
		{V: [3]r3.Vec{b, c, d}},
	}
}

func tetraPart(name string, color [4]float64) Part {
	return Part{
		Name:     name,
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Indices:  []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
		Color:    color,
	}
}

func TestFromParts(t *testing.T) {
	d, err := FromParts(tetraPart("Tenting_System", TentingColor), tetraPart("Palm_Rest", PalmRestColor))
	if err != nil {
		t.Fatal(err)
	}
	if err := scene.Validate(d); err != nil {
		t.Fatal(err)
	}
	nodes, meshes, accessors, _ := d.Counts()
	if nodes != 2 || meshes != 2 || accessors != 6 || len(d.Materials) != 2 {
		t.Fatalf("got %d nodes %d meshes %d accessors %d materials", nodes, meshes, accessors, len(d.Materials))
	}
	if d.Nodes[0].Name != "Tenting_System" || d.Nodes[1].Name != "Palm_Rest" {
		t.Errorf("unexpected node names %s %s", d.Nodes[0], d.Nodes[1])
	}
	if roots := d.Roots(); len(roots) != 2 {
		t.Errorf("roots %v", roots)
	}
	for i, n := range d.Nodes {
		if n.Translation != nil || n.Matrix != nil || n.Scale != nil || n.Rotation != nil {
			t.Errorf("node %d has a transform", i)
		}
	}
	pos := d.Accessors[d.Meshes[1].Primitives[0].Attributes[scene.AttrPosition]]
	if pos.Type != scene.TypeVec3 || pos.ComponentType != scene.ComponentFloat || pos.Count != 4 {
		t.Errorf("position accessor %+v", pos)
	}
	if got := d.Materials[0].BaseColor; got[0] <= got[2] {
		t.Errorf("tenting colour %v not red", got)
	}

	bad := tetraPart("bad", PalmRestColor)
	bad.Indices = append(bad.Indices, 9)
	if _, err := FromParts(bad); err == nil {
		t.Error("expected invalid part error")
	}
}

func TestSaveLoad(t *testing.T) {
	d, err := FromParts(tetraPart("Palm_Rest", PalmRestColor))
	if err != nil {
		t.Fatal(err)
	}
	d.Nodes[0].Translation = &[3]float64{1, 2, 3}
	path := filepath.Join(t.TempDir(), "parts.glb")
	if err := Save(path, d); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := scene.Validate(got); err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Name != "Palm_Rest" {
		t.Fatalf("unexpected nodes %+v", got.Nodes)
	}
	if tr := got.Nodes[0].Translation; tr == nil || *tr != [3]float64{1, 2, 3} {
		t.Errorf("translation %v", tr)
	}
	if got.Nodes[0].Scale != nil || got.Nodes[0].Matrix != nil {
		t.Error("default transforms not dropped")
	}
	if !bytes.Equal(got.Buffer, d.Buffer) {
		t.Errorf("buffer changed: %d bytes, want %d", len(got.Buffer), len(d.Buffer))
	}
	if got.Materials[0].BaseColor != d.Materials[0].BaseColor {
		// Colour goes through float32.
		for k := range got.Materials[0].BaseColor {
			if diff := got.Materials[0].BaseColor[k] - d.Materials[0].BaseColor[k]; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("colour %v, want %v", got.Materials[0].BaseColor, d.Materials[0].BaseColor)
				break
			}
		}
	}
}

func TestSaveInvalidKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.glb")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, _ := FromParts(tetraPart("x", PalmRestColor))
	d.Nodes[0].Mesh = scene.Index(5)
	if err := Save(path, d); !errors.Is(err, scene.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if b, _ := os.ReadFile(path); string(b) != "previous" {
		t.Error("previous file overwritten")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.glb"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not exist error, got %v", err)
	}
	_, err = LoadSTLPart("x", filepath.Join(t.TempDir(), "nope.stl"), PalmRestColor, 0)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not exist error, got %v", err)
	}
}

func TestLoadSTLPart(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin.stl")
	ascii := filepath.Join(dir, "ascii.stl")
	var b bytes.Buffer
	if err := render.WriteSTL(&b, tetraTriangles()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	b.Reset()
	if err := render.WriteASCIISTL(&b, "tetra", tetraTriangles()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ascii, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{bin, ascii} {
		p, err := LoadSTLPart("Tenting_System", path, TentingColor, 0)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if len(p.Vertices) != 4 || len(p.Indices) != 12 {
			t.Errorf("%s: got %d vertices %d indices, want 4 and 12", path, len(p.Vertices), len(p.Indices))
		}
		if p.Name != "Tenting_System" || p.Color != TentingColor {
			t.Errorf("%s: name or colour lost", path)
		}
	}
}

func TestNormals(t *testing.T) {
	p := Part{
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}},
		Indices:  []uint32{0, 1, 2},
	}
	n := p.normals()
	for i := 0; i < 3; i++ {
		if n[i] != [3]float32{0, 0, 1} {
			t.Errorf("vertex %d normal %v", i, n[i])
		}
	}
	if n[3] != [3]float32{0, 0, 1} {
		t.Errorf("unused vertex normal %v", n[3])
	}
}

func TestPartFromMesh(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	m, err := solid.Generate(square, solid.Config{
		Subdivisions: 1,
		Spacing:      3,
		Height:       solid.HeightConfig{Kind: solid.KindFlat, ZMax: 5},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := PartFromMesh("Palm_Rest", m, PalmRestColor)
	if len(p.Vertices) != len(m.Vertices) || len(p.Indices) != 3*len(m.Faces) {
		t.Fatalf("got %d vertices %d indices", len(p.Vertices), len(p.Indices))
	}
	d, err := FromParts(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := scene.Validate(d); err != nil {
		t.Fatal(err)
	}
}
