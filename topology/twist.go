package topology

// A face twist relates an element's local view of a shared face to the
// face's own vertex order. Non-negative twists are rotations; negative
// twists in [-M, -1] are reflections. Results are always in [0, M).

func mod(a, m int) int {
	a %= m
	if a < 0 {
		a += m
	}
	return a
}

// Twist maps element-local face vertex index to the face's own index
func Twist(index, faceTwist, m int) int {
	if faceTwist < 0 {
		return mod(m-1-index+faceTwist, m)
	}
	return mod(faceTwist+index, m)
}

// InvTwist maps a face index back to the element-local face vertex index
func InvTwist(index, faceTwist, m int) int {
	if faceTwist < 0 {
		return mod(m-1-index+faceTwist, m)
	}
	return mod(m+index-faceTwist, m)
}

// FindTwist returns the twist t for which view[i] == canonical[Twist(i, t, M)]
// for every i. ok is false when the two sequences do not describe the same face.
func FindTwist[T comparable](view, canonical []T) (t int, ok bool) {
	m := len(view)
	if m == 0 || m != len(canonical) {
		return 0, false
	}
	for t = -m; t < m; t++ {
		match := true
		for i := 0; i < m; i++ {
			if view[i] != canonical[Twist(i, t, m)] {
				match = false
				break
			}
		}
		if match {
			return t, true
		}
	}
	return 0, false
}

// FaceTopology carries the face-level base tables between the kernel and
// dune numbering of a triangle or quadrilateral face
type FaceTopology struct {
	m              int
	dune2aluVertex []int
	alu2duneVertex []int
}

var (
	triFace  = &FaceTopology{m: 3, dune2aluVertex: []int{0, 2, 1}, alu2duneVertex: []int{0, 2, 1}}
	quadFace = &FaceTopology{m: 4, dune2aluVertex: []int{0, 3, 1, 2}, alu2duneVertex: []int{0, 2, 3, 1}}
)

// FaceFor returns the face tables of the faces of a reference element kind
func FaceFor(k Kind) *FaceTopology {
	if k == Hexahedron {
		return quadFace
	}
	return triFace
}

// NumVertices is M
func (f *FaceTopology) NumVertices() int { return f.m }

func (f *FaceTopology) Dune2AluVertex(i int) int { return f.dune2aluVertex[i] }
func (f *FaceTopology) Alu2DuneVertex(i int) int { return f.alu2duneVertex[i] }

// Dune2AluVertexTwisted maps a dune face vertex through the base table and
// undoes the twist
func (f *FaceTopology) Dune2AluVertexTwisted(i, twist int) int {
	return InvTwist(f.dune2aluVertex[i], twist, f.m)
}

// Alu2DuneVertexTwisted is the inverse of Dune2AluVertexTwisted
func (f *FaceTopology) Alu2DuneVertexTwisted(i, twist int) int {
	return f.alu2duneVertex[Twist(i, twist, f.m)]
}
