package migration

import (
	"fmt"

	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/operator"
	"github.com/notargets/dgmigrate/stream"
)

// Walker runs a combined operator over a macro element's refinement subtree.
// It is not reentrant on a single stream and not safe for concurrent use.
type Walker struct {
	op       *operator.Combined[Param]
	pool     *grid.EntityPool
	maxDepth int
	visited  int
}

// NewWalker builds a walker that visits at least maxDepth levels below every
// macro element
func NewWalker(op *operator.Combined[Param], maxDepth int) *Walker {
	if maxDepth < 0 {
		panic(fmt.Sprintf("migration: negative walk depth %d", maxDepth))
	}
	return &Walker{op: op, pool: grid.NewEntityPool(), maxDepth: maxDepth}
}

// Visited is the number of entities the walker has handed to the operator
func (w *Walker) Visited() int { return w.visited }

// Pool exposes the walker's private entity pool
func (w *Walker) Pool() *grid.EntityPool { return w.pool }

// Inline writes the depth header, the subtree's maximum level, and then
// every entity's payload, macro first, descendants in child order down to
// the larger of the header and the walker's depth
func (w *Walker) Inline(s *stream.ObjectStream, macro *grid.Entity) error {
	header := macro.Element().Depth()
	stream.Write(s, int32(header))
	return w.walk(s, macro, max(header, w.maxDepth), Inline)
}

// Xtract reads the depth header and walks down to the larger of the header
// and the local grid's deepest level
func (w *Walker) Xtract(s *stream.ObjectStream, macro *grid.Entity) error {
	header, err := stream.Read[int32](s)
	if err != nil {
		return fmt.Errorf("depth header of macro %d: %w", macro.Element().MacroID(), err)
	}
	depth := max(int(header), macro.Grid().MaxLevel())
	return w.walk(s, macro, depth, Xtract)
}

func (w *Walker) walk(s *stream.ObjectStream, macro *grid.Entity, depth int, dir Direction) error {
	p := Param{Stream: s, Entity: macro, Dir: dir}
	w.op.Apply(&p)
	w.visited++
	if p.err != nil {
		return fmt.Errorf("%v %v: %w", dir, macro.Key(), p.err)
	}

	it := grid.NewChildIterator(macro.Element(), depth)
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		en := w.pool.Acquire(macro.Grid(), e.Level()).Bind(e)
		p.Entity = en
		w.op.Apply(&p)
		w.visited++
		w.pool.Release(en)
		if p.err != nil {
			return fmt.Errorf("%v %v: %w", dir, e.Key(), p.err)
		}
	}
	return nil
}
