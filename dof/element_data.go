// Package dof holds per-entity application data and the local operators
// that carry it through a migration. Each store registers with an
// operator.Combined[migration.Param] and must be registered in the same
// order on every rank.
package dof

import (
	"fmt"

	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/migration"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ElementData is a fixed-size block of values per element, keyed by the
// element's position in its macro's refinement tree
type ElementData struct {
	np     int
	values map[grid.Key]*mat.VecDense
}

func NewElementData(np int) *ElementData {
	if np <= 0 {
		panic(fmt.Sprintf("dof: block size %d", np))
	}
	return &ElementData{np: np, values: make(map[grid.Key]*mat.VecDense)}
}

func (d *ElementData) Np() int  { return d.np }
func (d *ElementData) Len() int { return len(d.values) }

// Set stores a copy of v for key
func (d *ElementData) Set(key grid.Key, v []float64) {
	if len(v) != d.np {
		panic(fmt.Sprintf("dof: block of %d values, want %d", len(v), d.np))
	}
	d.values[key] = mat.NewVecDense(d.np, append([]float64(nil), v...))
}

func (d *ElementData) At(key grid.Key) (*mat.VecDense, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Fill sets the block of every element of g's owned macros
func (d *ElementData) Fill(g *grid.Grid, fn func(e *grid.Element, dst []float64)) {
	g.Elements(func(e *grid.Element) {
		v := mat.NewVecDense(d.np, nil)
		fn(e, v.RawVector().Data)
		d.values[e.Key()] = v
	})
}

// Sum adds up every stored value
func (d *ElementData) Sum() float64 {
	total := 0.
	for _, v := range d.values {
		total += floats.Sum(v.RawVector().Data)
	}
	return total
}

// Apply writes or reads the block of the visited element. Elements without
// a block are packed as zeros.
func (d *ElementData) Apply(p *migration.Param) {
	key := p.Entity.Key()
	if p.Dir == migration.Inline {
		data := make([]float64, d.np)
		if v, ok := d.values[key]; ok {
			copy(data, v.RawVector().Data)
		}
		for i := range data {
			migration.Transfer(p, &data[i])
		}
		return
	}
	v := mat.NewVecDense(d.np, nil)
	data := v.RawVector().Data
	for i := range data {
		if !migration.Transfer(p, &data[i]) {
			return
		}
	}
	d.values[key] = v
}

// Prune drops the blocks of macros keep rejects
func (d *ElementData) Prune(keep func(macro int32) bool) int {
	n := 0
	for k := range d.values {
		if !keep(k.Macro) {
			delete(d.values, k)
			n++
		}
	}
	return n
}
