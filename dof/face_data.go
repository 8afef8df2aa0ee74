package dof

import (
	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/migration"
)

// FaceData holds one value per face vertex, stored in the face's canonical
// vertex order. Elements read and write it in their own dune face-vertex
// order; the face twist maps between the two.
type FaceData struct {
	values map[string][]float64
	refs   refs
	pool   *grid.EntityPool
}

func NewFaceData() *FaceData {
	return &FaceData{values: make(map[string][]float64), refs: make(refs), pool: grid.NewEntityPool()}
}

func (d *FaceData) Len() int { return len(d.values) }

// At returns the values of a face in canonical order
func (d *FaceData) At(faceKey string) ([]float64, bool) {
	v, ok := d.values[faceKey]
	return v, ok
}

// Fill sets every face of g's owned elements; fn receives the face key and
// the vertex at each canonical position
func (d *FaceData) Fill(g *grid.Grid, fn func(faceKey string, v *grid.Vertex) float64) {
	en := d.pool.Acquire(g, 0)
	defer d.pool.Release(en)
	g.Elements(func(e *grid.Element) {
		en.Bind(e)
		m := e.Kind().VerticesPerFace()
		for f := 0; f < en.NumFaces(); f++ {
			key := en.FaceKey(f)
			vals := make([]float64, m)
			for i := 0; i < m; i++ {
				vals[en.FaceVertexPosition(f, i)] = fn(key, en.FaceVertex(f, i))
			}
			d.values[key] = vals
			d.refs.add(key, e.MacroID())
		}
	})
}

func (d *FaceData) Apply(p *migration.Param) {
	en := p.Entity
	m := en.Kind().VerticesPerFace()
	macro := en.Key().Macro
	for f := 0; f < en.NumFaces(); f++ {
		key := en.FaceKey(f)
		vals, ok := d.values[key]
		if !ok {
			vals = make([]float64, m)
		}
		for i := 0; i < m; i++ {
			if !migration.Transfer(p, &vals[en.FaceVertexPosition(f, i)]) {
				return
			}
		}
		if p.Dir == migration.Xtract {
			d.values[key] = vals
			d.refs.add(key, macro)
		}
	}
}

// Prune drops faces no kept macro references
func (d *FaceData) Prune(keep func(macro int32) bool) int {
	dead := d.refs.prune(keep)
	for _, key := range dead {
		delete(d.values, key)
	}
	return len(dead)
}
