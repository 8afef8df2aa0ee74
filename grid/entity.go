package grid

import (
	"github.com/notargets/dgmigrate/topology"
	"gonum.org/v1/gonum/spatial/r3"
)

// Entity is a reusable view of one kernel element at a refinement level. It
// presents the element in dune numbering: corners, faces and face vertices
// are translated through the topology tables and the face twists.
//
// An Entity is owned by one traversal at a time and is rebound rather than
// reallocated; holders must not keep it across a rebind.
type Entity struct {
	grid     *Grid
	level    int
	elem     *Element
	released bool
}

func (en *Entity) check() {
	if debugChecks && en.released {
		panic("grid: use of released entity handle")
	}
}

// Bind points the handle at e
func (en *Entity) Bind(e *Element) *Entity {
	en.check()
	en.elem = e
	en.level = e.Level()
	return en
}

func (en *Entity) Element() *Element { en.check(); return en.elem }
func (en *Entity) Grid() *Grid       { return en.grid }
func (en *Entity) Level() int        { return en.level }
func (en *Entity) Key() Key          { en.check(); return en.elem.key }
func (en *Entity) Kind() topology.Kind {
	en.check()
	return en.elem.kind
}
func (en *Entity) Ghost() bool { en.check(); return en.elem.ghost }

// NumCorners is the vertex count of the bound element
func (en *Entity) NumCorners() int { en.check(); return en.elem.kind.NumVertices() }

// Corner returns dune corner i
func (en *Entity) Corner(i int) *Vertex {
	en.check()
	return en.elem.vertices[en.elem.Topology().Dune2AluVertex(i)]
}

// NumFaces is the face count of the bound element
func (en *Entity) NumFaces() int { en.check(); return en.elem.kind.NumFaces() }

// FaceKey names dune face f identically from both neighbouring elements
func (en *Entity) FaceKey(f int) string {
	en.check()
	return en.elem.FaceKey(en.elem.Topology().Dune2AluFace(f))
}

// FaceTwist is the twist of dune face f relative to the face's canonical order
func (en *Entity) FaceTwist(f int) int {
	en.check()
	return en.elem.FaceTwist(en.elem.Topology().Dune2AluFace(f))
}

// FaceVertexPosition maps vertex i of dune face f to its position in the
// face's canonical vertex order
func (en *Entity) FaceVertexPosition(f, i int) int {
	en.check()
	top := en.elem.Topology()
	af := top.Dune2AluFace(f)
	j := top.Dune2AluFaceVertex(f, i)
	return topology.Twist(j, en.elem.FaceTwist(af), en.elem.kind.VerticesPerFace())
}

// FaceVertex returns vertex i of dune face f
func (en *Entity) FaceVertex(f, i int) *Vertex {
	return en.Corner(en.elem.Topology().DuneFaceVertices(f)[i])
}

func (en *Entity) Center() r3.Vec {
	en.check()
	return en.elem.Center()
}
