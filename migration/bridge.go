package migration

import (
	"fmt"
	"strconv"

	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/operator"
	"github.com/notargets/dgmigrate/stream"
	"go.uber.org/zap"
)

// Bridge answers the kernel's migration callbacks for one grid. Whole
// macro subtrees go through the Walker; single ghost elements get one
// operator call on a shared handle.
//
// The shared handle is rebound on every SendData/RecvData call.
type Bridge struct {
	grid     *grid.Grid
	op       *operator.Combined[Param]
	walker   *Walker
	pool     *grid.EntityPool
	handle   *grid.Entity
	maxDepth int
	metrics  *Metrics
	rank     string
	log      *zap.Logger
}

var _ grid.GatherScatter = (*Bridge)(nil)

type BridgeOption func(*Bridge)

// WithMaxDepth sets the minimum number of levels walked below a macro
func WithMaxDepth(depth int) BridgeOption {
	return func(b *Bridge) { b.maxDepth = depth }
}

func WithMetrics(m *Metrics) BridgeOption {
	return func(b *Bridge) { b.metrics = m }
}

func NewBridge(g *grid.Grid, op *operator.Combined[Param], opts ...BridgeOption) *Bridge {
	b := &Bridge{
		grid: g,
		op:   op,
		pool: grid.NewEntityPool(),
		rank: strconv.Itoa(g.Rank()),
		log:  g.Logger().Named("bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.walker = NewWalker(op, b.maxDepth)
	b.handle = b.pool.Acquire(g, 0)
	return b
}

// Walker exposes the subtree walker
func (b *Bridge) Walker() *Walker { return b.walker }

func (b *Bridge) bind(e *grid.Element) *grid.Entity {
	return b.handle.Bind(e)
}

func (b *Bridge) InlineData(s *stream.ObjectStream, macro *grid.Element) error {
	start, visited := s.Len(), b.walker.Visited()
	err := b.walker.Inline(s, b.bind(macro))
	n, bytes := b.walker.Visited()-visited, s.Len()-start
	b.metrics.record(b.rank, "inline", Inline, n, bytes)
	b.log.Debug("inline", zap.Int32("macro", macro.MacroID()), zap.Int("entities", n),
		zap.Int("bytes", bytes), zap.Error(err))
	return err
}

func (b *Bridge) XtractData(s *stream.ObjectStream, macro *grid.Element) error {
	start, visited := s.Remaining(), b.walker.Visited()
	err := b.walker.Xtract(s, b.bind(macro))
	n, bytes := b.walker.Visited()-visited, start-s.Remaining()
	b.metrics.record(b.rank, "xtract", Xtract, n, bytes)
	b.log.Debug("xtract", zap.Int32("macro", macro.MacroID()), zap.Int("entities", n),
		zap.Int("bytes", bytes), zap.Error(err))
	return err
}

func (b *Bridge) SendData(s *stream.ObjectStream, elem *grid.Element) error {
	start := s.Len()
	err := b.applyOnce(s, elem, Inline)
	b.metrics.record(b.rank, "send", Inline, 1, s.Len()-start)
	return err
}

func (b *Bridge) RecvData(s *stream.ObjectStream, ghost *grid.Element) error {
	start := s.Remaining()
	err := b.applyOnce(s, ghost, Xtract)
	b.metrics.record(b.rank, "recv", Xtract, 1, start-s.Remaining())
	return err
}

func (b *Bridge) applyOnce(s *stream.ObjectStream, e *grid.Element, dir Direction) error {
	p := Param{Stream: s, Entity: b.bind(e), Dir: dir}
	b.op.Apply(&p)
	if p.err != nil {
		return fmt.Errorf("%v %v: %w", dir, e.Key(), p.err)
	}
	return nil
}
