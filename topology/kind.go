package topology

import "fmt"

// Kind identifies the shape of a reference element
type Kind uint8

const (
	Tetrahedron Kind = iota
	Hexahedron
)

func (k Kind) String() string {
	switch k {
	case Tetrahedron:
		return "Tetrahedron"
	case Hexahedron:
		return "Hexahedron"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// NumVertices returns the vertex count of the reference element
func (k Kind) NumVertices() int {
	if k == Hexahedron {
		return 8
	}
	return 4
}

// NumEdges returns the edge count of the reference element
func (k Kind) NumEdges() int {
	if k == Hexahedron {
		return 12
	}
	return 6
}

// NumFaces returns the face count of the reference element
func (k Kind) NumFaces() int {
	if k == Hexahedron {
		return 6
	}
	return 4
}

// VerticesPerFace is M, the modulus used for face twists (3 or 4)
func (k Kind) VerticesPerFace() int {
	if k == Hexahedron {
		return 4
	}
	return 3
}

// KindForVertexCount maps a corner count read from a mesh file to a Kind
func KindForVertexCount(n int) (Kind, bool) {
	switch n {
	case 4:
		return Tetrahedron, true
	case 8:
		return Hexahedron, true
	}
	return 0, false
}
