package render_test

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/keebcase/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// tetra is a closed tetrahedron with outward facing normals.
func tetra() []render.Triangle3 {
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

func TestSTLCreateWriteRead(t *testing.T) {
	model := tetra()
	path := filepath.Join(t.TempDir(), "tetra.stl")
	src := render.SliceRenderer(append([]render.Triangle3(nil), model...))
	if err := render.CreateSTL(path, &src); err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := render.WriteSTL(&b, model); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
	if len(bfile) != 84+50*len(model) {
		t.Fatalf("unexpected file size %d", len(bfile))
	}

	got, err := render.ReadSTL(bytes.NewReader(bfile))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(model) {
		t.Fatalf("read %d triangles, want %d", len(got), len(model))
	}
	for i := range got {
		if got[i] != model[i] {
			t.Errorf("triangle %d: got %v, want %v", i, got[i], model[i])
		}
	}
}

func TestCreateSTLKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.stl")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	var empty render.SliceRenderer
	err := render.CreateSTL(path, &empty)
	if !errors.Is(err, render.ErrEmptyModel) {
		t.Fatalf("expected ErrEmptyModel, got %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "previous" {
		t.Error("previous output was overwritten")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary file left behind: %d entries", len(entries))
	}
}

func TestReadSTLRejects(t *testing.T) {
	header := func(count uint32) []byte {
		b := make([]byte, 84)
		binary.LittleEndian.PutUint32(b[80:], count)
		return b
	}
	if _, err := render.ReadSTL(bytes.NewReader(header(render.MaxFacets + 1))); !errors.Is(err, render.ErrTooManyFacets) {
		t.Errorf("expected ErrTooManyFacets, got %v", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(header(0))); !errors.Is(err, render.ErrEmptyModel) {
		t.Errorf("expected ErrEmptyModel, got %v", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 40))); err == nil {
		t.Error("expected short header error")
	}
	// Declares two triangles, holds one.
	var b bytes.Buffer
	render.WriteSTL(&b, tetra()[:1])
	raw := b.Bytes()
	binary.LittleEndian.PutUint32(raw[80:], 2)
	if _, err := render.ReadSTL(bytes.NewReader(raw)); err == nil {
		t.Error("expected truncated file error")
	}
	// NaN vertex.
	b.Reset()
	render.WriteSTL(&b, tetra()[:1])
	raw = b.Bytes()
	binary.LittleEndian.PutUint32(raw[84+12:], math.Float32bits(float32(math.NaN())))
	if _, err := render.ReadSTL(bytes.NewReader(raw)); err == nil {
		t.Error("expected NaN error")
	}
}

func TestConvertToASCII(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bin.stl")
	dst := filepath.Join(dir, "ascii.stl")
	var b bytes.Buffer
	if err := render.WriteSTL(&b, tetra()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := render.ConvertToASCII(dst, src, "tetra")
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("converted %d facets, want 4", n)
	}
	fp, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	facets := 0
	sc := bufio.NewScanner(fp)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			if !strings.HasPrefix(line, "solid tetra") {
				t.Errorf("unexpected first line %q", line)
			}
			first = false
		}
		if strings.HasPrefix(line, "facet normal") {
			facets++
		}
	}
	if facets != 4 {
		t.Errorf("got %d facets in ASCII output", facets)
	}
}

func TestRenderAll(t *testing.T) {
	model := tetra()
	src := render.SliceRenderer(append([]render.Triangle3(nil), model...))
	got, err := render.RenderAll(&src)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(model) {
		t.Fatalf("got %d triangles", len(got))
	}
}
