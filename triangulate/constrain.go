package triangulate

import (
	"github.com/soypat/keebcase/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// mesh is a counter-clockwise triangulation with half-edge lookup. The
// directed edge u->v maps to the triangle on its left. Recovered boundary
// edges are fixed and never flipped.
type mesh struct {
	pts   []r2.Vec
	tris  [][3]int
	edges map[[2]int]int
	fixed map[[2]int]bool
}

func newMesh(pts []r2.Vec, flat []int) *mesh {
	m := &mesh{
		pts:   pts,
		tris:  make([][3]int, 0, len(flat)/3),
		edges: make(map[[2]int]int, len(flat)),
		fixed: make(map[[2]int]bool),
	}
	for t := 0; t+2 < len(flat); t += 3 {
		a, b, c := flat[t], flat[t+1], flat[t+2]
		if d2.Orient(pts[a], pts[b], pts[c]) < 0 {
			b, c = c, b
		}
		m.tris = append(m.tris, [3]int{a, b, c})
		m.link(len(m.tris) - 1)
	}
	return m
}

func (m *mesh) link(t int) {
	tri := m.tris[t]
	for k := 0; k < 3; k++ {
		m.edges[[2]int{tri[k], tri[(k+1)%3]}] = t
	}
}

func (m *mesh) unlink(t int) {
	tri := m.tris[t]
	for k := 0; k < 3; k++ {
		delete(m.edges, [2]int{tri[k], tri[(k+1)%3]})
	}
}

func (m *mesh) hasEdge(a, b int) bool {
	_, ab := m.edges[[2]int{a, b}]
	_, ba := m.edges[[2]int{b, a}]
	return ab || ba
}

// apex returns the vertex of triangle t opposite its edge u->v.
func (m *mesh) apex(t, u, v int) int {
	for _, w := range m.tris[t] {
		if w != u && w != v {
			return w
		}
	}
	return -1
}

// crosses reports whether segments ab and cd intersect at a single point
// interior to both.
func crosses(a, b, c, d r2.Vec) bool {
	o1, o2 := d2.Orient(a, b, c), d2.Orient(a, b, d)
	o3, o4 := d2.Orient(c, d, a), d2.Orient(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

// crossing lists the edges that cross segment ab, each once and in
// triangle order.
func (m *mesh) crossing(a, b int) [][2]int {
	pa, pb := m.pts[a], m.pts[b]
	var out [][2]int
	seen := make(map[[2]int]bool)
	for _, tri := range m.tris {
		for k := 0; k < 3; k++ {
			u, v := tri[k], tri[(k+1)%3]
			key := [2]int{min(u, v), max(u, v)}
			if seen[key] || u == a || u == b || v == a || v == b {
				continue
			}
			seen[key] = true
			if crosses(pa, pb, m.pts[u], m.pts[v]) {
				out = append(out, [2]int{u, v})
			}
		}
	}
	return out
}

// flip replaces edge u-v, the diagonal of the quad formed by its two
// triangles, with the other diagonal p-q. It fails when the quad is not
// strictly convex or u-v is on the hull.
func (m *mesh) flip(u, v int) (p, q int, ok bool) {
	t1, ok1 := m.edges[[2]int{u, v}]
	t2, ok2 := m.edges[[2]int{v, u}]
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	p, q = m.apex(t1, u, v), m.apex(t2, v, u)
	if !crosses(m.pts[u], m.pts[v], m.pts[p], m.pts[q]) {
		return 0, 0, false
	}
	m.unlink(t1)
	m.unlink(t2)
	m.tris[t1] = [3]int{p, u, q}
	m.tris[t2] = [3]int{q, v, p}
	m.link(t1)
	m.link(t2)
	return p, q, true
}

// insert makes a-b an edge of the triangulation by flipping the edges that
// cross it. It returns false if a-b could not be recovered, which happens
// when another point lies on the segment or a fixed edge crosses it.
func (m *mesh) insert(a, b int) bool {
	if a == b {
		return true
	}
	if m.hasEdge(a, b) {
		m.fixed[[2]int{min(a, b), max(a, b)}] = true
		return true
	}
	queue := m.crossing(a, b)
	for _, e := range queue {
		if m.fixed[[2]int{min(e[0], e[1]), max(e[0], e[1])}] {
			return false
		}
	}
	limit := 64*len(queue) + 1024
	pa, pb := m.pts[a], m.pts[b]
	for n := 0; len(queue) > 0; n++ {
		if n > limit {
			return false
		}
		e := queue[0]
		queue = queue[1:]
		p, q, ok := m.flip(e[0], e[1])
		if !ok {
			queue = append(queue, e)
			continue
		}
		if p != a && p != b && q != a && q != b && crosses(pa, pb, m.pts[p], m.pts[q]) {
			queue = append(queue, [2]int{p, q})
		}
	}
	if !m.hasEdge(a, b) {
		return false
	}
	m.fixed[[2]int{min(a, b), max(a, b)}] = true
	return true
}

// constrain recovers every edge of the closed loop of point indices and
// returns how many could not be recovered.
func (m *mesh) constrain(loop []int) (missing int) {
	for i := range loop {
		if !m.insert(loop[i], loop[(i+1)%len(loop)]) {
			missing++
		}
	}
	return missing
}
