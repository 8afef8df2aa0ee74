// Package grid is a small unstructured mesh kernel: a rank-local forest of
// tetrahedral and hexahedral macro elements with hierarchical red
// refinement, ghost copies of neighbouring macros owned by other ranks, and
// the kernel side of the macro migration protocol.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/dgmigrate/topology"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnknownMacro indicates a macro element id the grid does not hold
	ErrUnknownMacro = errors.New("unknown macro element")

	// ErrUnsupportedElement indicates a mesh element that is neither a
	// tetrahedron nor a hexahedron
	ErrUnsupportedElement = errors.New("unsupported element shape")
)

// Grid holds the macro elements present on one rank
type Grid struct {
	rank     int
	vertices map[string]*Vertex
	macros   map[int32]*Element
	log      *zap.Logger
}

func New(rank int, log *zap.Logger) *Grid {
	if log == nil {
		log = zap.NewNop()
	}
	return &Grid{
		rank:     rank,
		vertices: make(map[string]*Vertex),
		macros:   make(map[int32]*Element),
		log:      log.With(zap.Int("rank", rank)),
	}
}

// Option configures a Grid built by NewMacroGrid
type Option func(*Grid)

// WithLogger attaches a logger
func WithLogger(log *zap.Logger) Option {
	return func(g *Grid) {
		if log != nil {
			g.log = log.With(zap.Int("rank", g.rank))
		}
	}
}

func (g *Grid) Rank() int { return g.rank }

func (g *Grid) Logger() *zap.Logger { return g.log }

// AddMacro inserts a macro element. keys and coords are given in kernel
// vertex order.
func (g *Grid) AddMacro(id int32, kind topology.Kind, keys []string, coords []r3.Vec, owner int, ghost bool) (*Element, error) {
	if len(keys) != kind.NumVertices() || len(coords) != len(keys) {
		return nil, fmt.Errorf("macro %d: %v needs %d vertices, got %d keys and %d coordinates",
			id, kind, kind.NumVertices(), len(keys), len(coords))
	}
	if _, exists := g.macros[id]; exists {
		return nil, fmt.Errorf("macro %d already present on rank %d", id, g.rank)
	}
	e := &Element{
		key:      Key{Macro: id},
		kind:     kind,
		vertices: make([]*Vertex, len(keys)),
		ghost:    ghost,
		owner:    owner,
	}
	for i, k := range keys {
		e.vertices[i] = g.vertex(k, coords[i])
	}
	g.macros[id] = e
	return e, nil
}

// Macro returns the macro element with the given id
func (g *Grid) Macro(id int32) (*Element, bool) {
	e, ok := g.macros[id]
	return e, ok
}

// Has reports whether the macro is present, owned or ghost
func (g *Grid) Has(id int32) bool {
	_, ok := g.macros[id]
	return ok
}

// RemoveMacro drops a macro element and its subtree
func (g *Grid) RemoveMacro(id int32) error {
	if _, ok := g.macros[id]; !ok {
		return fmt.Errorf("remove macro %d on rank %d: %w", id, g.rank, ErrUnknownMacro)
	}
	delete(g.macros, id)
	return nil
}

// Macros returns every macro element, owned and ghost, ordered by id
func (g *Grid) Macros() []*Element {
	out := make([]*Element, 0, len(g.macros))
	for _, e := range g.macros {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.Macro < out[j].key.Macro })
	return out
}

// OwnedMacros returns the interior (non-ghost) macro elements ordered by id
func (g *Grid) OwnedMacros() []*Element {
	var out []*Element
	for _, e := range g.Macros() {
		if !e.ghost {
			out = append(out, e)
		}
	}
	return out
}

// Ghosts returns the ghost macro elements ordered by id
func (g *Grid) Ghosts() []*Element {
	var out []*Element
	for _, e := range g.Macros() {
		if e.ghost {
			out = append(out, e)
		}
	}
	return out
}

// MaxLevel is the deepest refinement level present on this rank
func (g *Grid) MaxLevel() int {
	maxl := 0
	for _, e := range g.macros {
		if d := e.Depth(); d > maxl {
			maxl = d
		}
	}
	return maxl
}

// Leaves calls fn for every leaf element of the owned macros, in macro id
// order and depth first below each macro
func (g *Grid) Leaves(fn func(*Element)) {
	for _, m := range g.OwnedMacros() {
		m.walk(func(e *Element) {
			if e.IsLeaf() {
				fn(e)
			}
		})
	}
}

// Elements calls fn for every element of the owned macros, in macro id order
// and depth first below each macro
func (g *Grid) Elements(fn func(*Element)) {
	for _, m := range g.OwnedMacros() {
		m.walk(fn)
	}
}

// NumLeaves counts the leaf elements below one element
func NumLeaves(e *Element) int {
	n := 0
	e.walk(func(c *Element) {
		if c.IsLeaf() {
			n++
		}
	})
	return n
}

// NumElements counts every element in the subtree, e included
func NumElements(e *Element) int {
	n := 0
	e.walk(func(*Element) { n++ })
	return n
}
