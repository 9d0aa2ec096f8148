package scene

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// testDoc builds a document where each accessor is three float VEC3
// elements in its own buffer view, mesh m reads accessors 2m and 2m+1 and
// node i instances mesh i%meshes. Node 0 is the only root and parents
// every other node when tree is set.
func testDoc(nodes, meshes, accessors int, tree bool) *Document {
	d := &Document{Generator: "test"}
	for i := 0; i < accessors; i++ {
		off := 36 * i
		buf := make([]byte, 36)
		for k := 0; k < 9; k++ {
			putFloat32(buf[4*k:], float32(i*10+k))
		}
		d.Buffer = append(d.Buffer, buf...)
		d.BufferViews = append(d.BufferViews, BufferView{ByteOffset: off, ByteLength: 36, Target: TargetArray})
		d.Accessors = append(d.Accessors, Accessor{
			BufferView:    Index(i),
			ComponentType: ComponentFloat,
			Count:         3,
			Type:          TypeVec3,
		})
	}
	for m := 0; m < meshes; m++ {
		d.Meshes = append(d.Meshes, Mesh{Primitives: []Primitive{{
			Attributes: map[string]int{
				AttrPosition: (2 * m) % accessors,
				AttrNormal:   (2*m + 1) % accessors,
			},
			Mode: ModeTriangles,
		}}})
	}
	for i := 0; i < nodes; i++ {
		d.Nodes = append(d.Nodes, Node{Mesh: Index(i % meshes)})
	}
	d.Scenes = []Scene{{Name: "root"}}
	if tree {
		d.Scenes[0].Nodes = []int{0}
		for i := 1; i < nodes; i++ {
			d.Nodes[0].Children = append(d.Nodes[0].Children, i)
		}
	} else {
		for i := 0; i < nodes; i++ {
			d.Scenes[0].Nodes = append(d.Scenes[0].Nodes, i)
		}
	}
	return d
}

func TestMergeIndexOffsets(t *testing.T) {
	primary := testDoc(5, 3, 10, true)
	primary.Materials = []Material{{Name: "fr4", BaseColor: [4]float64{0, 0.5, 0, 1}, AlphaMode: AlphaOpaque}}
	for i := range primary.Meshes {
		primary.Meshes[i].Primitives[0].Material = Index(0)
	}
	secondary := testDoc(2, 1, 4, false)
	secondary.Nodes[0].Name = "Tenting_System"
	secondary.Nodes[1].Name = "Palm_Rest"
	primaryBefore, secondaryBefore := primary.Clone(), secondary.Clone()

	out, err := Merge(primary, secondary, MergeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	nodes, meshes, accessors, views := out.Counts()
	if nodes != 7 || meshes != 4 || accessors != 14 || views != 14 {
		t.Fatalf("got %d nodes %d meshes %d accessors %d views, want 7/4/14/14", nodes, meshes, accessors, views)
	}
	prim := out.Meshes[3].Primitives[0]
	if prim.Attributes[AttrPosition] != 10 || prim.Attributes[AttrNormal] != 11 {
		t.Errorf("secondary primitive attributes %v, want POSITION 10 NORMAL 11", prim.Attributes)
	}
	for i := 10; i < 14; i++ {
		a := out.Accessors[i]
		if *a.BufferView != i {
			t.Errorf("accessor %d: buffer view %d", i, *a.BufferView)
		}
		if got, want := out.BufferViews[i].ByteOffset, 360+36*(i-10); got != want {
			t.Errorf("buffer view %d: offset %d, want %d", i, got, want)
		}
	}
	if !bytes.Equal(out.Buffer, append(append([]byte(nil), primary.Buffer...), secondary.Buffer...)) {
		t.Error("buffer is not the concatenation of both inputs")
	}
	if *out.Nodes[5].Mesh != 3 || *out.Nodes[6].Mesh != 3 {
		t.Errorf("secondary nodes reference meshes %d and %d, want 3", *out.Nodes[5].Mesh, *out.Nodes[6].Mesh)
	}
	if roots := out.Roots(); !reflect.DeepEqual(roots, []int{0, 5, 6}) {
		t.Errorf("roots %v, want [0 5 6]", roots)
	}
	if len(out.Materials) != 2 || *prim.Material != 1 {
		t.Fatalf("expected a synthesized material, got %d materials, primitive uses %v", len(out.Materials), prim.Material)
	}
	for i, m := range out.Materials {
		if m.BaseColor[3] != DefaultAlpha || m.AlphaMode != AlphaBlend {
			t.Errorf("material %d: alpha %g mode %s", i, m.BaseColor[3], m.AlphaMode)
		}
	}
	// Primary transforms survive untouched.
	if !reflect.DeepEqual(out.Nodes[:5], primaryBefore.Nodes) {
		t.Error("primary nodes changed")
	}
	if !reflect.DeepEqual(primary, primaryBefore) || !reflect.DeepEqual(secondary, secondaryBefore) {
		t.Error("merge modified its inputs")
	}
}

func TestMergeWithoutScenes(t *testing.T) {
	secondary := testDoc(3, 1, 2, true)
	secondary.Nodes = append(secondary.Nodes, Node{Name: "loose", Mesh: Index(0)})
	secondary.Scenes = nil

	out, err := Merge(testDoc(2, 1, 2, true), secondary, MergeOptions{Alpha: 1})
	if err != nil {
		t.Fatal(err)
	}
	if roots := out.Roots(); !reflect.DeepEqual(roots, []int{0, 2, 5}) {
		t.Errorf("roots %v, want [0 2 5]", roots)
	}

	primary := testDoc(2, 1, 2, true)
	primary.Scenes = nil
	out, err = Merge(primary, secondary, MergeOptions{Alpha: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Scenes) != 1 {
		t.Fatalf("got %d scenes, want 1", len(out.Scenes))
	}
	if roots := out.Roots(); !reflect.DeepEqual(roots, []int{0, 2, 5}) {
		t.Errorf("roots %v, want [0 2 5]", roots)
	}
}

func TestMergeAlignsBuffer(t *testing.T) {
	primary := testDoc(1, 1, 2, true)
	primary.Buffer = append(primary.Buffer, 0xAA, 0xBB)
	secondary := testDoc(1, 1, 2, false)
	out, err := Merge(primary, secondary, MergeOptions{Alpha: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.BufferViews[2].ByteOffset; got != 76 {
		t.Errorf("secondary view offset %d, want 76", got)
	}
	if got := getFloat32(out.Buffer[76:]); got != 0 {
		t.Errorf("first secondary float %g, want 0", got)
	}
	if got := getFloat32(out.Buffer[76+36+4:]); got != 11 {
		t.Errorf("second accessor float %g, want 11", got)
	}
	// Alpha 1 leaves materials alone except the synthesized default.
	if len(out.Materials) != 1 || out.Materials[0].BaseColor[3] != 1 {
		t.Errorf("unexpected materials %+v", out.Materials)
	}
}

func TestMergeIncludeAndOffsets(t *testing.T) {
	primary := testDoc(2, 1, 2, true)
	secondary := testDoc(3, 1, 2, false)
	secondary.Scenes = nil
	secondary.Nodes[0].Name = "Palm_Rest"
	secondary.Nodes[1].Name = "Other"
	secondary.Nodes[2].Name = "Case"
	secondary.Nodes[2].Matrix = &[16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 5, 5, 1}
	out, err := Merge(primary, secondary, MergeOptions{
		Include: DefaultInclude,
		Offsets: map[string][3]float64{
			"Palm_Rest": {1, 2, 3},
			"Case":      {-5, 0, 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if roots := out.Roots(); !reflect.DeepEqual(roots, []int{0, 2, 4}) {
		t.Errorf("roots %v, want [0 2 4]", roots)
	}
	if tr := out.Nodes[2].Translation; tr == nil || *tr != [3]float64{1, 2, 3} {
		t.Errorf("Palm_Rest translation %v", tr)
	}
	if m := out.Nodes[4].Matrix; m[12] != 0 || m[13] != 5 || m[14] != 6 {
		t.Errorf("Case matrix translation %v", m[12:15])
	}
	if out.Nodes[3].Translation != nil {
		t.Error("unlisted node moved")
	}
}

func TestMergeRejectsInvalid(t *testing.T) {
	primary := testDoc(2, 1, 2, true)
	secondary := testDoc(2, 1, 2, false)
	secondary.Nodes[1].Mesh = Index(4)
	_, err := Merge(primary, secondary, MergeOptions{})
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "secondary") {
		t.Fatalf("expected invalid secondary error, got %v", err)
	}
	if _, err = Merge(primary, testDoc(1, 1, 2, false), MergeOptions{Alpha: 2}); err == nil {
		t.Error("expected alpha error")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(testDoc(4, 2, 4, true)); err != nil {
		t.Fatal(err)
	}
	d := testDoc(3, 1, 2, false)
	d.Nodes[0].Mesh = Index(1)
	d.Scenes[0].Nodes = append(d.Scenes[0].Nodes, 9)
	d.BufferViews[1].ByteLength = 100
	d.Meshes[0].Primitives[0].Indices = Index(-1)
	d.Nodes[1].Children = []int{2}
	err := Validate(d)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{
		"node 0: mesh 1 out of range",
		"root node 9 out of range",
		"buffer view 1: range",
		"indices accessor -1",
		"root node 2 is a child of node 1",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in:\n%v", want, err)
		}
	}

	cyc := testDoc(2, 1, 2, true)
	cyc.Nodes[1].Children = []int{0}
	cyc.Scenes[0].Nodes = nil
	if err := Validate(cyc); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestRescale(t *testing.T) {
	d := testDoc(2, 1, 2, true)
	d.Nodes[1].Translation = &[3]float64{0.5, 0, -0.25}
	d.Nodes[0].Matrix = &[16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0.5, 0, 0, 1}
	before := d.Clone()
	out, err := Rescale(d, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, before) {
		t.Error("rescale modified its input")
	}
	// Accessor 0 holds POSITION values 0..8.
	for k := 0; k < 9; k++ {
		if got := getFloat32(out.Buffer[4*k:]); got != float32(1000*k) {
			t.Errorf("position component %d = %g, want %d", k, got, 1000*k)
		}
	}
	if !reflect.DeepEqual(out.Accessors[0].Min, []float64{0, 1000, 2000}) ||
		!reflect.DeepEqual(out.Accessors[0].Max, []float64{6000, 7000, 8000}) {
		t.Errorf("bounds %v %v", out.Accessors[0].Min, out.Accessors[0].Max)
	}
	// Accessor 1 is NORMAL and stays untouched.
	if !bytes.Equal(out.Buffer[36:72], d.Buffer[36:72]) {
		t.Error("normals were scaled")
	}
	if tr := *out.Nodes[1].Translation; tr != [3]float64{500, 0, -250} {
		t.Errorf("translation %v", tr)
	}
	if out.Nodes[0].Matrix[12] != 500 || out.Nodes[0].Matrix[0] != 1 {
		t.Errorf("matrix %v", *out.Nodes[0].Matrix)
	}
	if _, err := Rescale(d, 0); err == nil {
		t.Error("expected error for zero factor")
	}
}

func TestDescribe(t *testing.T) {
	d := testDoc(3, 1, 2, true)
	d.Nodes[2].Name = "Palm_Rest"
	d.Scenes[0].Nodes = append(d.Scenes[0].Nodes, 7)
	var b bytes.Buffer
	if err := Describe(&b, d, "Palm_Rest", "Case"); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"nodes: 3",
		`node 2 "Palm_Rest" mesh=0`,
		"WARNING: node 7 out of range",
		"Palm_Rest: node 2, reachable",
		"Case: missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
