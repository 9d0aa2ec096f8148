// Package solid assembles closed triangle meshes from a triangulated cap,
// a height field and the outline walls.
package solid

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/internal/d3"
	"github.com/soypat/keebcase/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Faces follow the right hand rule and
// point outwards for a well formed solid.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
}

// Triangles returns the faces of m as triangles.
func (m Mesh) Triangles() []render.Triangle3 {
	t := make([]render.Triangle3, len(m.Faces))
	for i, f := range m.Faces {
		t[i].V = [3]r3.Vec{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
	}
	return t
}

// Renderer returns a render.Renderer that streams the faces of m.
func (m Mesh) Renderer() render.Renderer {
	return &meshRenderer{m: m}
}

type meshRenderer struct {
	m    Mesh
	next int
}

func (r *meshRenderer) ReadTriangles(dst []render.Triangle3) (n int, err error) {
	for n < len(dst) && r.next < len(r.m.Faces) {
		f := r.m.Faces[r.next]
		dst[n].V = [3]r3.Vec{r.m.Vertices[f[0]], r.m.Vertices[f[1]], r.m.Vertices[f[2]]}
		n++
		r.next++
	}
	if r.next >= len(r.m.Faces) {
		err = io.EOF
	}
	return n, err
}

type edgeKey [2]int

func undirected(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// OpenEdges returns the number of edges not shared by exactly two faces.
func (m Mesh) OpenEdges() int {
	count := make(map[edgeKey]int, 3*len(m.Faces)/2)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			count[undirected(f[i], f[(i+1)%3])]++
		}
	}
	open := 0
	for _, c := range count {
		if c != 2 {
			open++
		}
	}
	return open
}

// Closed reports whether every edge of a non-empty m is shared by exactly two faces.
func (m Mesh) Closed() bool {
	return len(m.Faces) > 0 && m.OpenEdges() == 0
}

// Volume returns the signed volume enclosed by m. It is positive for a
// closed mesh with outward facing normals.
func (m Mesh) Volume() (v float64) {
	for _, f := range m.Faces {
		v += d3.SignedVolume(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
	}
	return v
}

// Bounds returns the bounding box of the mesh vertices.
func (m Mesh) Bounds() r3.Box {
	return d3.Bounds(m.Vertices)
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
