package grid

import (
	"fmt"

	"github.com/notargets/dgmigrate/stream"
	"github.com/notargets/dgmigrate/topology"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// GatherScatter is the callback set the kernel invokes while moving macro
// elements between ranks. InlineData/XtractData carry a whole refinement
// subtree; SendData/RecvData carry one ghost element.
type GatherScatter interface {
	InlineData(s *stream.ObjectStream, macro *Element) error
	XtractData(s *stream.ObjectStream, macro *Element) error
	SendData(s *stream.ObjectStream, elem *Element) error
	RecvData(s *stream.ObjectStream, ghost *Element) error
}

// PackMacro writes macro's geometry and refinement tree, then lets gs
// append the application data. The receiving grid will own the macro as
// newOwner.
func (g *Grid) PackMacro(s *stream.ObjectStream, macro *Element, newOwner int, gs GatherScatter) error {
	if macro.parent != nil {
		return fmt.Errorf("pack %v: not a macro element", macro.key)
	}
	stream.Write(s, macro.key.Macro)
	stream.Write(s, uint8(macro.kind))
	stream.Write(s, int32(newOwner))
	for _, v := range macro.vertices {
		stream.WriteString(s, v.Key)
		stream.Write(s, v.X.X)
		stream.Write(s, v.X.Y)
		stream.Write(s, v.X.Z)
	}
	macro.walk(func(e *Element) {
		var refined uint8
		if !e.IsLeaf() {
			refined = 1
		}
		stream.Write(s, refined)
	})
	if err := gs.InlineData(s, macro); err != nil {
		return fmt.Errorf("inline data of macro %d: %w", macro.key.Macro, err)
	}
	g.log.Debug("packed macro", zap.Int32("macro", macro.key.Macro),
		zap.Int("elements", NumElements(macro)), zap.Int("bytes", s.Len()))
	return nil
}

// UnpackMacro reads one macro written by PackMacro, rebuilds its refinement
// tree as an owned macro (replacing a ghost copy if present) and lets gs
// consume the application data
func (g *Grid) UnpackMacro(s *stream.ObjectStream, gs GatherScatter) (*Element, error) {
	id, err := stream.Read[int32](s)
	if err != nil {
		return nil, err
	}
	rawKind, err := stream.Read[uint8](s)
	if err != nil {
		return nil, err
	}
	owner, err := stream.Read[int32](s)
	if err != nil {
		return nil, err
	}
	kind := topology.Kind(rawKind)
	keys := make([]string, kind.NumVertices())
	coords := make([]r3.Vec, kind.NumVertices())
	for i := range keys {
		if keys[i], err = stream.ReadString(s); err != nil {
			return nil, err
		}
		var xyz [3]float64
		for j := range xyz {
			if xyz[j], err = stream.Read[float64](s); err != nil {
				return nil, err
			}
		}
		coords[i] = r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}

	ghost, hadGhost := g.macros[id]
	if hadGhost {
		if !ghost.ghost {
			return nil, fmt.Errorf("unpack macro %d: already owned by rank %d", id, g.rank)
		}
		delete(g.macros, id)
	}
	// on failure the ghost copy, if any, is put back
	restore := func() {
		delete(g.macros, id)
		if hadGhost {
			g.macros[id] = ghost
		}
	}
	macro, err := g.AddMacro(id, kind, keys, coords, int(owner), false)
	if err != nil {
		restore()
		return nil, err
	}
	if err = g.readRefinement(s, macro); err != nil {
		restore()
		return nil, fmt.Errorf("refinement tree of macro %d: %w", id, err)
	}
	if err = gs.XtractData(s, macro); err != nil {
		restore()
		return nil, fmt.Errorf("xtract data of macro %d: %w", id, err)
	}
	g.log.Debug("unpacked macro", zap.Int32("macro", id), zap.Int("elements", NumElements(macro)))
	return macro, nil
}

func (g *Grid) readRefinement(s *stream.ObjectStream, e *Element) error {
	refined, err := stream.Read[uint8](s)
	if err != nil {
		return err
	}
	if refined == 0 {
		return nil
	}
	g.Refine(e)
	for _, c := range e.children {
		if err = g.readRefinement(s, c); err != nil {
			return err
		}
	}
	return nil
}

// SendGhost writes the data of one owned element for the rank that holds
// it as a ghost
func (g *Grid) SendGhost(s *stream.ObjectStream, elem *Element, gs GatherScatter) error {
	stream.Write(s, elem.key.Macro)
	return gs.SendData(s, elem)
}

// RecvGhost reads one element written by SendGhost into the local ghost copy
func (g *Grid) RecvGhost(s *stream.ObjectStream, gs GatherScatter) (*Element, error) {
	id, err := stream.Read[int32](s)
	if err != nil {
		return nil, err
	}
	ghost, ok := g.macros[id]
	if !ok || !ghost.ghost {
		return nil, fmt.Errorf("receive ghost %d on rank %d: %w", id, g.rank, ErrUnknownMacro)
	}
	if err = gs.RecvData(s, ghost); err != nil {
		return nil, fmt.Errorf("recv data of ghost %d: %w", id, err)
	}
	return ghost, nil
}
