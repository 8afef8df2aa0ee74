package topology

// ElementTopology translates vertex, edge and face indices between the
// kernel ("alu") numbering of a reference element and the framework
// ("dune") numbering. All tables are total over the element's index range;
// an out-of-range index is a programming error and panics.
type ElementTopology struct {
	kind Kind

	dune2aluVertex, alu2duneVertex []int
	dune2aluEdge, alu2duneEdge     []int
	dune2aluFace, alu2duneFace     []int

	// [duneFace][duneFaceVertex] -> kernel face vertex, and the inverse
	dune2aluFaceVertex, alu2duneFaceVertex [][]int

	// Geometric definitions the tables above are derived from
	aluFaceVertices  [][]int // [aluFace] element vertices in kernel face order
	duneFaceVertices [][]int // [duneFace] element vertices in dune sub-entity order
	aluEdgeVertices  [][]int
	duneEdgeVertices [][]int
}

var tetra = &ElementTopology{
	kind: Tetrahedron,

	dune2aluVertex: []int{0, 1, 2, 3},
	alu2duneVertex: []int{0, 1, 2, 3},
	dune2aluEdge:   []int{0, 1, 3, 2, 4, 5},
	alu2duneEdge:   []int{0, 1, 3, 2, 4, 5},
	dune2aluFace:   []int{3, 2, 1, 0},
	alu2duneFace:   []int{3, 2, 1, 0},

	dune2aluFaceVertex: [][]int{{0, 1, 2}, {0, 2, 1}, {0, 1, 2}, {0, 2, 1}},
	alu2duneFaceVertex: [][]int{{0, 1, 2}, {0, 2, 1}, {0, 1, 2}, {0, 2, 1}},

	// kernel face i is opposite vertex i
	aluFaceVertices:  [][]int{{1, 3, 2}, {0, 2, 3}, {0, 3, 1}, {0, 1, 2}},
	duneFaceVertices: [][]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}},
	aluEdgeVertices:  [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}},
	duneEdgeVertices: [][]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}},
}

// Kernel hexahedron: bottom vertices 0..3 run (0,0,0) (0,1,0) (1,1,0) (1,0,0),
// top vertices 4..7 sit above them. Dune vertex i is (i&1, i>>1&1, i>>2&1).
var hexa = &ElementTopology{
	kind: Hexahedron,

	dune2aluVertex: []int{0, 3, 1, 2, 4, 7, 5, 6},
	alu2duneVertex: []int{0, 2, 3, 1, 4, 6, 7, 5},
	dune2aluEdge:   []int{0, 5, 1, 3, 8, 11, 9, 10, 2, 7, 4, 6},
	alu2duneEdge:   []int{0, 2, 8, 3, 10, 1, 11, 9, 4, 6, 7, 5},
	dune2aluFace:   []int{2, 4, 5, 3, 0, 1},
	alu2duneFace:   []int{4, 5, 0, 3, 1, 2},

	dune2aluFaceVertex: [][]int{
		{0, 1, 3, 2}, {1, 0, 2, 3}, {0, 3, 1, 2},
		{0, 1, 3, 2}, {0, 1, 3, 2}, {0, 3, 1, 2},
	},
	alu2duneFaceVertex: [][]int{
		{0, 1, 3, 2}, {1, 0, 2, 3}, {0, 2, 3, 1},
		{0, 1, 3, 2}, {0, 1, 3, 2}, {0, 2, 3, 1},
	},

	aluFaceVertices: [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {0, 4, 7, 3},
	},
	duneFaceVertices: [][]int{
		{0, 2, 4, 6}, {1, 3, 5, 7}, {0, 1, 4, 5},
		{2, 3, 6, 7}, {0, 1, 2, 3}, {4, 5, 6, 7},
	},
	aluEdgeVertices: [][]int{
		{0, 1}, {0, 3}, {0, 4}, {1, 2}, {1, 5}, {2, 3},
		{2, 6}, {3, 7}, {4, 5}, {4, 7}, {5, 6}, {6, 7},
	},
	duneEdgeVertices: [][]int{
		{0, 2}, {1, 3}, {0, 1}, {2, 3}, {4, 6}, {5, 7},
		{4, 5}, {6, 7}, {0, 4}, {1, 5}, {2, 6}, {3, 7},
	},
}

// For returns the shared, read-only tables for a reference element kind
func For(k Kind) *ElementTopology {
	if k == Hexahedron {
		return hexa
	}
	return tetra
}

func (t *ElementTopology) Kind() Kind { return t.kind }

func (t *ElementTopology) Dune2AluVertex(i int) int { return t.dune2aluVertex[i] }
func (t *ElementTopology) Alu2DuneVertex(i int) int { return t.alu2duneVertex[i] }
func (t *ElementTopology) Dune2AluEdge(i int) int   { return t.dune2aluEdge[i] }
func (t *ElementTopology) Alu2DuneEdge(i int) int   { return t.alu2duneEdge[i] }
func (t *ElementTopology) Dune2AluFace(i int) int   { return t.dune2aluFace[i] }
func (t *ElementTopology) Alu2DuneFace(i int) int   { return t.alu2duneFace[i] }

// Dune2AluFaceVertex maps vertex i of dune face `face` to its position
// in the corresponding kernel face
func (t *ElementTopology) Dune2AluFaceVertex(face, i int) int {
	return t.dune2aluFaceVertex[face][i]
}

// Alu2DuneFaceVertex is the inverse of Dune2AluFaceVertex; face is in
// dune numbering for both
func (t *ElementTopology) Alu2DuneFaceVertex(face, i int) int {
	return t.alu2duneFaceVertex[face][i]
}

// AluFaceVertices returns the element-local vertices of kernel face f in
// the kernel's face order. The returned slice must not be modified.
func (t *ElementTopology) AluFaceVertices(f int) []int { return t.aluFaceVertices[f] }

// DuneFaceVertices returns the element-local dune vertices of dune face f
func (t *ElementTopology) DuneFaceVertices(f int) []int { return t.duneFaceVertices[f] }

func (t *ElementTopology) AluEdgeVertices(e int) []int  { return t.aluEdgeVertices[e] }
func (t *ElementTopology) DuneEdgeVertices(e int) []int { return t.duneEdgeVertices[e] }
