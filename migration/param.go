// Package migration moves per-entity application data along with macro
// elements when the mesh is repartitioned.
//
// A Walker visits a macro element and its refinement subtree depth first and
// runs one combined local operator per visited entity. Pack and unpack visit
// entities in the same order and the stream carries no type tags, so both
// sides must register the same operators in the same order. A mismatch is
// not detected; it shows up as misaligned data downstream.
package migration

import (
	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/stream"
)

// Direction selects whether operators write (Inline) or read (Xtract)
type Direction uint8

const (
	Inline Direction = iota
	Xtract
)

func (d Direction) String() string {
	if d == Inline {
		return "inline"
	}
	return "xtract"
}

// Param is what a local operator sees for one visited entity. The Entity is
// a pooled handle that is rebound after the call returns; operators must not
// keep it.
type Param struct {
	Stream *stream.ObjectStream
	Entity *grid.Entity
	Dir    Direction

	err error
}

// Fail records an operator error. The first error wins and stops the walk
// after the current entity.
func (p *Param) Fail(err error) {
	if p.err == nil && err != nil {
		p.err = err
	}
}

// Err returns the first recorded error
func (p *Param) Err() error { return p.err }

// Transfer writes *v when packing and overwrites it when unpacking. It
// returns false once the Param has failed.
func Transfer[T stream.Number](p *Param, v *T) bool {
	if p.err != nil {
		return false
	}
	if p.Dir == Inline {
		stream.Write(p.Stream, *v)
		return true
	}
	r, err := stream.Read[T](p.Stream)
	if err != nil {
		p.Fail(err)
		return false
	}
	*v = r
	return true
}
