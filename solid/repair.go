package solid

import "github.com/soypat/keebcase/internal/d3"

// Repair returns a copy of m with consistent face winding and filled holes.
//
// Winding is propagated across edges shared by exactly two faces so that
// neighbours traverse their common edge in opposite directions. Each
// connected shell is then flipped if its signed volume is negative.
// Finally every loop of boundary edges is closed with a triangle fan.
// Repair does not move or merge vertices.
func Repair(m Mesh) Mesh {
	out := Mesh{
		Vertices: append(m.Vertices[:0:0], m.Vertices...),
		Faces:    append(m.Faces[:0:0], m.Faces...),
	}
	orient(out)
	out.Faces = append(out.Faces, fillHoles(out.Faces)...)
	return out
}

func flip(f *[3]int) { f[1], f[2] = f[2], f[1] }

// directed reports whether face f traverses edge a->b.
func directed(f [3]int, a, b int) bool {
	for i := 0; i < 3; i++ {
		if f[i] == a && f[(i+1)%3] == b {
			return true
		}
	}
	return false
}

func orient(m Mesh) {
	adj := make(map[edgeKey][]int, 3*len(m.Faces)/2)
	for i, f := range m.Faces {
		for j := 0; j < 3; j++ {
			k := undirected(f[j], f[(j+1)%3])
			adj[k] = append(adj[k], i)
		}
	}
	visited := make([]bool, len(m.Faces))
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		shell := []int{seed}
		for q := 0; q < len(shell); q++ {
			fi := shell[q]
			f := m.Faces[fi]
			for j := 0; j < 3; j++ {
				a, b := f[j], f[(j+1)%3]
				nb := adj[undirected(a, b)]
				if len(nb) != 2 {
					continue
				}
				other := nb[0]
				if other == fi {
					other = nb[1]
				}
				if visited[other] {
					continue
				}
				if directed(m.Faces[other], a, b) {
					flip(&m.Faces[other])
				}
				visited[other] = true
				shell = append(shell, other)
			}
		}
		vol := 0.0
		for _, fi := range shell {
			f := m.Faces[fi]
			vol += d3.SignedVolume(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
		}
		if vol < 0 {
			for _, fi := range shell {
				flip(&m.Faces[fi])
			}
		}
	}
}

// fillHoles returns fan triangles closing every simple loop of boundary edges.
func fillHoles(faces [][3]int) [][3]int {
	count := make(map[edgeKey]int, 3*len(faces)/2)
	for _, f := range faces {
		for j := 0; j < 3; j++ {
			count[undirected(f[j], f[(j+1)%3])]++
		}
	}
	// A boundary edge a->b is closed by a face that walks b->a.
	next := make(map[int]int)
	var starts []int
	for _, f := range faces {
		for j := 0; j < 3; j++ {
			a, b := f[j], f[(j+1)%3]
			if count[undirected(a, b)] == 1 {
				next[b] = a
				starts = append(starts, b)
			}
		}
	}
	var fill [][3]int
	done := make(map[int]bool, len(next))
	for _, start := range starts {
		if done[start] {
			continue
		}
		loop := []int{start}
		done[start] = true
		for v := next[start]; v != start; v = next[v] {
			if done[v] {
				loop = nil
				break
			}
			done[v] = true
			loop = append(loop, v)
			if _, ok := next[v]; !ok {
				loop = nil
				break
			}
		}
		for i := 1; i+1 < len(loop); i++ {
			fill = append(fill, [3]int{loop[0], loop[i], loop[i+1]})
		}
	}
	return fill
}
