package migration

import (
	"context"
	"fmt"

	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/partitions"
	"github.com/notargets/dgmigrate/stream"
	"github.com/notargets/dgmigrate/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pruner drops data held for macro elements a rank no longer owns
type Pruner interface {
	Prune(keep func(macro int32) bool) int
}

// Rank is one participant of an in-memory repartitioning step. Ranks are
// indexed by their grid's rank id.
type Rank struct {
	Grid   *grid.Grid
	Bridge *Bridge
	Stores []Pruner
}

// Report summarizes one Rebalance call
type Report struct {
	Moved   int
	Bytes   int
	Ghosts  int // ghost macros added and removed
	Dropped int // pruned store entries
}

func checkRanks(ranks []*Rank) error {
	for i, r := range ranks {
		if r == nil || r.Grid == nil || r.Bridge == nil {
			return fmt.Errorf("rank %d is incomplete", i)
		}
		if r.Grid.Rank() != i {
			return fmt.Errorf("rank slot %d holds the grid of rank %d", i, r.Grid.Rank())
		}
	}
	return nil
}

// streamMatrix allocates one stream per (src, dst) pair. Row src is only
// written by src's goroutine and column dst only read by dst's.
func streamMatrix(n int) [][]*stream.ObjectStream {
	m := make([][]*stream.ObjectStream, n)
	for i := range m {
		m[i] = make([]*stream.ObjectStream, n)
		for j := range m[i] {
			m[i][j] = stream.New()
		}
	}
	return m
}

// Rebalance moves macro elements with their refinement trees and
// application data between ranks. Sources pack concurrently, then
// destinations unpack concurrently. Afterwards every grid's ghost layer
// matches etop and every store is pruned to the owned macros.
//
// Cancellation is checked between macro elements; a cancelled call leaves
// the ranks in an undefined state.
func Rebalance(ctx context.Context, ranks []*Rank, mm *grid.MacroMesh, moves []partitions.Move, etop []int) (Report, error) {
	var report Report
	if err := checkRanks(ranks); err != nil {
		return report, err
	}
	if len(etop) != mm.NumElements() {
		return report, fmt.Errorf("partition map has %d entries for %d elements", len(etop), mm.NumElements())
	}
	bySource := make([][]partitions.Move, len(ranks))
	for _, mv := range moves {
		if mv.From < 0 || mv.From >= len(ranks) || mv.To < 0 || mv.To >= len(ranks) {
			return report, fmt.Errorf("move of macro %d from %d to %d: no such rank", mv.Macro, mv.From, mv.To)
		}
		if int(mv.Macro) >= len(etop) || etop[mv.Macro] != mv.To {
			return report, fmt.Errorf("move of macro %d to %d disagrees with the partition map", mv.Macro, mv.To)
		}
		bySource[mv.From] = append(bySource[mv.From], mv)
	}

	streams := streamMatrix(len(ranks))

	// Phase 1: pack
	eg, egCtx := errgroup.WithContext(ctx)
	for src, r := range ranks {
		eg.Go(func() error {
			for _, mv := range bySource[src] {
				if err := egCtx.Err(); err != nil {
					return err
				}
				macro, ok := r.Grid.Macro(mv.Macro)
				if !ok || macro.Ghost() {
					return fmt.Errorf("rank %d does not own macro %d: %w", src, mv.Macro, grid.ErrUnknownMacro)
				}
				if err := r.Grid.PackMacro(streams[src][mv.To], macro, mv.To, r.Bridge); err != nil {
					return err
				}
				if err := r.Grid.RemoveMacro(mv.Macro); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, fmt.Errorf("pack: %w", err)
	}

	// Phase 2: unpack, then refresh ghosts and prune
	counts := make([]Report, len(ranks))
	eg, egCtx = errgroup.WithContext(ctx)
	for dst, r := range ranks {
		eg.Go(func() error {
			c := &counts[dst]
			for src := range ranks {
				s := streams[src][dst]
				c.Bytes += s.Len()
				for !s.Exhausted() {
					if err := egCtx.Err(); err != nil {
						return err
					}
					if _, err := r.Grid.UnpackMacro(s, r.Bridge); err != nil {
						return fmt.Errorf("rank %d from rank %d: %w", dst, src, err)
					}
					c.Moved++
				}
			}
			added, removed, err := r.Grid.UpdateGhosts(mm, etop)
			if err != nil {
				return err
			}
			c.Ghosts = added + removed
			keep := func(id int32) bool {
				e, ok := r.Grid.Macro(id)
				return ok && !e.Ghost()
			}
			for _, st := range r.Stores {
				c.Dropped += st.Prune(keep)
			}
			r.Grid.PruneVertices()
			r.Grid.Logger().Debug("rebalanced", zap.Int("received", c.Moved),
				zap.Int("bytes", c.Bytes), zap.Int("ghostChanges", c.Ghosts), zap.Int("dropped", c.Dropped))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, fmt.Errorf("unpack: %w", err)
	}

	for _, c := range counts {
		report.Moved += c.Moved
		report.Bytes += c.Bytes
		report.Ghosts += c.Ghosts
		report.Dropped += c.Dropped
	}
	return report, nil
}

// ExchangeGhosts sends every owned macro element's data to the ranks that
// hold it as a ghost. Only the macro element itself is exchanged.
func ExchangeGhosts(ctx context.Context, ranks []*Rank, gc *utils.GhostConnector) error {
	if err := checkRanks(ranks); err != nil {
		return err
	}
	if gc.NumPartitions > len(ranks) {
		return fmt.Errorf("connector spans %d partitions, %d ranks given", gc.NumPartitions, len(ranks))
	}
	streams := streamMatrix(len(ranks))

	eg, egCtx := errgroup.WithContext(ctx)
	for src, r := range ranks {
		eg.Go(func() error {
			for dst := range ranks {
				if err := egCtx.Err(); err != nil {
					return err
				}
				for _, k := range gc.GetPickIndices(src, dst) {
					elem, ok := r.Grid.Macro(int32(k))
					if !ok || elem.Ghost() {
						return fmt.Errorf("rank %d picks macro %d it does not own: %w", src, k, grid.ErrUnknownMacro)
					}
					if err := r.Grid.SendGhost(streams[src][dst], elem, r.Bridge); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("send ghosts: %w", err)
	}

	eg, egCtx = errgroup.WithContext(ctx)
	for dst, r := range ranks {
		eg.Go(func() error {
			for src := range ranks {
				if err := egCtx.Err(); err != nil {
					return err
				}
				s := streams[src][dst]
				for _, k := range gc.GetPlaceIndices(dst, src) {
					ghost, err := r.Grid.RecvGhost(s, r.Bridge)
					if err != nil {
						return err
					}
					if int(ghost.MacroID()) != k {
						return fmt.Errorf("rank %d expected ghost %d from rank %d, got %d", dst, k, src, ghost.MacroID())
					}
				}
				if !s.Exhausted() {
					return fmt.Errorf("rank %d left %d bytes from rank %d unread", dst, s.Remaining(), src)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("receive ghosts: %w", err)
	}
	return nil
}

// LeafWeights returns the leaf count of every owned macro element across
// all ranks, indexed by macro id
func LeafWeights(ranks []*Rank, numMacros int) []float64 {
	w := make([]float64, numMacros)
	for _, r := range ranks {
		for _, m := range r.Grid.OwnedMacros() {
			w[m.MacroID()] = float64(grid.NumLeaves(m))
		}
	}
	return w
}

// CurrentEToP reads the partition map off the ranks' owned macros
func CurrentEToP(ranks []*Rank, numMacros int) ([]int, error) {
	etop := make([]int, numMacros)
	for i := range etop {
		etop[i] = -1
	}
	for _, r := range ranks {
		for _, m := range r.Grid.OwnedMacros() {
			if etop[m.MacroID()] != -1 {
				return nil, fmt.Errorf("macro %d owned by ranks %d and %d", m.MacroID(), etop[m.MacroID()], r.Grid.Rank())
			}
			etop[m.MacroID()] = r.Grid.Rank()
		}
	}
	for k, p := range etop {
		if p == -1 {
			return nil, fmt.Errorf("macro %d has no owner", k)
		}
	}
	return etop, nil
}
