package grid

import "github.com/notargets/dgmigrate/topology"

// Bey's red refinement of a tetrahedron: four corner children then the four
// children cut from the inner octahedron. Entries index the 10 points
// v0 v1 v2 v3 m01 m02 m03 m12 m13 m23.
var tetChildren = [8][4]int{
	{0, 4, 5, 6},
	{4, 1, 7, 8},
	{5, 7, 2, 9},
	{6, 8, 9, 3},
	{4, 5, 6, 8},
	{4, 5, 7, 8},
	{5, 6, 8, 9},
	{5, 7, 8, 9},
}

// Refine splits a leaf element into 8 children. Refining a refined element
// is a no-op.
func (g *Grid) Refine(e *Element) {
	if !e.IsLeaf() {
		return
	}
	var childVerts [8][]*Vertex
	switch e.kind {
	case topology.Hexahedron:
		childVerts = g.hexChildren(e)
	default:
		childVerts = g.tetChildren(e)
	}
	e.children = make([]*Element, 8)
	for i, cv := range childVerts {
		e.children[i] = &Element{
			key:      e.key.Child(i),
			kind:     e.kind,
			vertices: cv,
			parent:   e,
			ghost:    e.ghost,
			owner:    e.owner,
		}
	}
}

func (g *Grid) tetChildren(e *Element) (out [8][]*Vertex) {
	v := e.vertices
	pts := []*Vertex{
		v[0], v[1], v[2], v[3],
		g.centroid(v[0], v[1]), g.centroid(v[0], v[2]), g.centroid(v[0], v[3]),
		g.centroid(v[1], v[2]), g.centroid(v[1], v[3]), g.centroid(v[2], v[3]),
	}
	for c, idx := range tetChildren {
		out[c] = []*Vertex{pts[idx[0]], pts[idx[1]], pts[idx[2]], pts[idx[3]]}
	}
	return out
}

// hexChildren builds the 3x3x3 lattice in dune coordinates and cuts it into
// 8 children numbered lexicographically, converting corners back to kernel
// order
func (g *Grid) hexChildren(e *Element) (out [8][]*Vertex) {
	top := e.Topology()
	var corner [8]*Vertex
	for d := 0; d < 8; d++ {
		corner[d] = e.vertices[top.Dune2AluVertex(d)]
	}
	span := [3][]int{{0}, {0, 1}, {1}}

	var lattice [3][3][3]*Vertex
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				var parents []*Vertex
				for _, a := range span[i] {
					for _, b := range span[j] {
						for _, c := range span[k] {
							parents = append(parents, corner[a+2*b+4*c])
						}
					}
				}
				if len(parents) == 1 {
					lattice[i][j][k] = parents[0]
				} else {
					lattice[i][j][k] = g.centroid(parents...)
				}
			}
		}
	}

	for child := 0; child < 8; child++ {
		a, b, c := child&1, child>>1&1, child>>2&1
		verts := make([]*Vertex, 8)
		for d := 0; d < 8; d++ {
			x, y, z := d&1, d>>1&1, d>>2&1
			verts[top.Dune2AluVertex(d)] = lattice[a+x][b+y][c+z]
		}
		out[child] = verts
	}
	return out
}

// Coarsen removes the subtree below e
func (g *Grid) Coarsen(e *Element) {
	e.children = nil
}

// RefineWhere refines, once, every owned leaf for which mark returns true
func (g *Grid) RefineWhere(mark func(*Element) bool) int {
	var marked []*Element
	g.Leaves(func(e *Element) {
		if mark(e) {
			marked = append(marked, e)
		}
	})
	for _, e := range marked {
		g.Refine(e)
	}
	return len(marked)
}

// RefineAll refines every owned leaf `levels` times
func (g *Grid) RefineAll(levels int) {
	for l := 0; l < levels; l++ {
		g.RefineWhere(func(*Element) bool { return true })
	}
}
