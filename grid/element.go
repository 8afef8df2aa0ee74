package grid

import (
	"fmt"
	"strings"

	"github.com/notargets/dgmigrate/topology"
	"gonum.org/v1/gonum/spatial/r3"
)

// Key identifies an element across ranks: the macro element it descends
// from and the child indices taken from there (3 bits per level)
type Key struct {
	Macro int32
	Level uint8
	Path  uint64
}

// Child returns the key of child i
func (k Key) Child(i int) Key {
	return Key{Macro: k.Macro, Level: k.Level + 1, Path: k.Path<<3 | uint64(i)}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d:%o", k.Macro, k.Level, k.Path)
}

// Element is a node in a macro element's refinement tree. Vertices are kept
// in kernel numbering.
type Element struct {
	key      Key
	kind     topology.Kind
	vertices []*Vertex
	parent   *Element
	children []*Element
	ghost    bool
	owner    int
}

func (e *Element) Key() Key             { return e.key }
func (e *Element) Kind() topology.Kind  { return e.kind }
func (e *Element) Level() int           { return int(e.key.Level) }
func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) Children() []*Element { return e.children }
func (e *Element) IsLeaf() bool         { return len(e.children) == 0 }
func (e *Element) Ghost() bool          { return e.ghost }
func (e *Element) Owner() int           { return e.owner }
func (e *Element) MacroID() int32       { return e.key.Macro }
func (e *Element) Vertex(i int) *Vertex { return e.vertices[i] }
func (e *Element) NumVertices() int     { return len(e.vertices) }
func (e *Element) Topology() *topology.ElementTopology {
	return topology.For(e.kind)
}

// Depth is the deepest level present in the subtree rooted at e
func (e *Element) Depth() int {
	d := e.Level()
	for _, c := range e.children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d
}

// Center is the vertex average
func (e *Element) Center() r3.Vec {
	var sum r3.Vec
	for _, v := range e.vertices {
		sum = r3.Add(sum, v.X)
	}
	return r3.Scale(1/float64(len(e.vertices)), sum)
}

// walk visits e and all descendants depth first
func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

// FaceView returns the vertex keys of kernel face f in the element's local order
func (e *Element) FaceView(f int) []string {
	local := e.Topology().AluFaceVertices(f)
	view := make([]string, len(local))
	for i, lv := range local {
		view[i] = e.vertices[lv].Key
	}
	return view
}

// canonicalFace orders a face's vertex keys independently of which element
// views it: smallest key first, then toward the smaller neighbour
func canonicalFace(view []string) []string {
	m := len(view)
	start := 0
	for i := 1; i < m; i++ {
		if view[i] < view[start] {
			start = i
		}
	}
	dir := 1
	if view[(start+m-1)%m] < view[(start+1)%m] {
		dir = m - 1
	}
	out := make([]string, m)
	for i := 0; i < m; i++ {
		out[i] = view[(start+i*dir)%m]
	}
	return out
}

// FaceKey names kernel face f identically from both sides of the face
func (e *Element) FaceKey(f int) string {
	return strings.Join(canonicalFace(e.FaceView(f)), "|")
}

// FaceTwist returns the twist of kernel face f relative to the face's
// canonical vertex order
func (e *Element) FaceTwist(f int) int {
	view := e.FaceView(f)
	t, ok := topology.FindTwist(view, canonicalFace(view))
	if !ok {
		panic(fmt.Sprintf("grid: element %v face %d has no twist", e.key, f))
	}
	return t
}

// ChildIterator enumerates the strict descendants of an element depth first,
// in child order, skipping anything deeper than maxLevel
type ChildIterator struct {
	stack    []*Element
	maxLevel int
}

func NewChildIterator(e *Element, maxLevel int) *ChildIterator {
	it := &ChildIterator{maxLevel: maxLevel}
	it.push(e)
	return it
}

func (it *ChildIterator) push(e *Element) {
	if e.Level()+1 > it.maxLevel {
		return
	}
	for i := len(e.children) - 1; i >= 0; i-- {
		it.stack = append(it.stack, e.children[i])
	}
}

// Next returns the next descendant, or false when the walk is done
func (it *ChildIterator) Next() (*Element, bool) {
	n := len(it.stack)
	if n == 0 {
		return nil, false
	}
	e := it.stack[n-1]
	it.stack = it.stack[:n-1]
	it.push(e)
	return e, true
}
