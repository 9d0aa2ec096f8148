package scene

import (
	"fmt"
	"io"
	"strings"
)

// Describe writes a summary of d to w: element counts, the node hierarchy
// of every scene and whether each of the named nodes is present and
// reachable. Out of range references are reported inline rather than
// aborting.
func Describe(w io.Writer, d *Document, names ...string) error {
	p := &printer{w: w}
	p.printf("generator: %s\n", d.Generator)
	nodes, meshes, accessors, views := d.Counts()
	p.printf("nodes: %d  meshes: %d  materials: %d  accessors: %d  bufferViews: %d  buffer: %d bytes  scenes: %d\n",
		nodes, meshes, len(d.Materials), accessors, views, len(d.Buffer), len(d.Scenes))

	reachable := make([]bool, len(d.Nodes))
	for si, s := range d.Scenes {
		def := ""
		if si == d.Scene {
			def = " (default)"
		}
		p.printf("scene %d %q%s\n", si, s.Name, def)
		for _, r := range s.Nodes {
			p.node(d, r, 1, reachable)
		}
	}
	if len(names) > 0 {
		p.printf("parts:\n")
	}
	for _, name := range names {
		found := false
		for i, n := range d.Nodes {
			if n.Name != name {
				continue
			}
			found = true
			state := "reachable"
			if !reachable[i] {
				state = "NOT REACHABLE"
			}
			p.printf("  %s: node %d, %s\n", name, i, state)
		}
		if !found {
			p.printf("  %s: missing\n", name)
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) node(d *Document, i, depth int, seen []bool) {
	indent := strings.Repeat("  ", depth)
	if i < 0 || i >= len(d.Nodes) {
		p.printf("%sWARNING: node %d out of range (have %d)\n", indent, i, len(d.Nodes))
		return
	}
	if seen[i] {
		p.printf("%snode %d already visited\n", indent, i)
		return
	}
	seen[i] = true
	n := d.Nodes[i]
	p.printf("%snode %d %s", indent, i, n)
	if n.Mesh != nil {
		p.printf(" mesh=%d", *n.Mesh)
	}
	if n.Translation != nil {
		p.printf(" t=%v", *n.Translation)
	}
	if n.Rotation != nil {
		p.printf(" r=%v", *n.Rotation)
	}
	if n.Scale != nil {
		p.printf(" s=%v", *n.Scale)
	}
	if n.Matrix != nil {
		p.printf(" matrix-t=%v", n.Matrix[12:15])
	}
	p.printf("\n")
	for _, c := range n.Children {
		p.node(d, c, depth+1, seen)
	}
}
