package dof

import (
	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/migration"
)

// VertexData is one value per mesh vertex. Vertices are shared between
// elements; each element carries the values of its corners in dune order.
type VertexData struct {
	values map[string]float64
	refs   refs
}

func NewVertexData() *VertexData {
	return &VertexData{values: make(map[string]float64), refs: make(refs)}
}

func (d *VertexData) Len() int { return len(d.values) }

func (d *VertexData) At(key string) (float64, bool) {
	x, ok := d.values[key]
	return x, ok
}

// Fill sets the value of every vertex of g's owned elements
func (d *VertexData) Fill(g *grid.Grid, fn func(v *grid.Vertex) float64) {
	g.Elements(func(e *grid.Element) {
		for i := 0; i < e.NumVertices(); i++ {
			v := e.Vertex(i)
			d.values[v.Key] = fn(v)
			d.refs.add(v.Key, e.MacroID())
		}
	})
}

func (d *VertexData) Apply(p *migration.Param) {
	macro := p.Entity.Key().Macro
	for i := 0; i < p.Entity.NumCorners(); i++ {
		key := p.Entity.Corner(i).Key
		x := d.values[key]
		if !migration.Transfer(p, &x) {
			return
		}
		if p.Dir == migration.Xtract {
			d.values[key] = x
			d.refs.add(key, macro)
		}
	}
}

// Prune drops vertices no kept macro references
func (d *VertexData) Prune(keep func(macro int32) bool) int {
	dead := d.refs.prune(keep)
	for _, key := range dead {
		delete(d.values, key)
	}
	return len(dead)
}
