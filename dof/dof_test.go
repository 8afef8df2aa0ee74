package dof_test

import (
	"testing"

	"github.com/notargets/dgmigrate/dof"
	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/migration"
	"github.com/notargets/dgmigrate/operator"
	"github.com/notargets/dgmigrate/stream"
	"github.com/notargets/dgmigrate/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type stores struct {
	elems *dof.ElementData
	verts *dof.VertexData
	faces *dof.FaceData
	op    *operator.Combined[migration.Param]
}

func newStores(np int) *stores {
	s := &stores{elems: dof.NewElementData(np), verts: dof.NewVertexData(), faces: dof.NewFaceData()}
	s.op = operator.New[migration.Param]()
	operator.Append(s.op, s.elems)
	operator.Append(s.op, s.verts)
	operator.Append(s.op, s.faces)
	return s
}

func (s *stores) fill(g *grid.Grid) {
	s.elems.Fill(g, blockValues)
	s.verts.Fill(g, vertexValue)
	s.faces.Fill(g, faceValue)
}

func blockValues(e *grid.Element, dst []float64) {
	c := e.Center()
	for i := range dst {
		dst[i] = c.X - 3*c.Y + 7*c.Z + float64(10*i+100*e.Level())
	}
}

func vertexValue(v *grid.Vertex) float64 { return 1 + v.X.X*v.X.Y - v.X.Z }

func faceValue(key string, v *grid.Vertex) float64 {
	return float64(len(key)) + r3.Dot(v.X, r3.Vec{X: 2, Y: 3, Z: 5})
}

// subtree lists e and its descendants
func subtree(e *grid.Element) []*grid.Element {
	out := []*grid.Element{e}
	for _, c := range e.Children() {
		out = append(out, subtree(c)...)
	}
	return out
}

func TestStoresMigrateWithMacro(t *testing.T) {
	for _, kind := range []topology.Kind{topology.Hexahedron, topology.Tetrahedron} {
		t.Run(kind.String(), func(t *testing.T) {
			mm, err := grid.BoxMesh(2, 1, 1, kind)
			require.NoError(t, err)
			etop := make([]int, mm.NumElements())
			for i := mm.NumElements() / 2; i < len(etop); i++ {
				etop[i] = 1
			}
			src, err := grid.NewMacroGrid(0, mm, etop)
			require.NoError(t, err)
			dst, err := grid.NewMacroGrid(1, mm, etop)
			require.NoError(t, err)

			m0, ok := src.Macro(0)
			require.True(t, ok)
			src.Refine(m0)
			src.Refine(m0.Children()[3])

			from, to := newStores(3), newStores(3)
			from.fill(src)

			s := stream.New()
			require.NoError(t, src.PackMacro(s, m0, 1, migration.NewBridge(src, from.op)))
			in := stream.FromBytes(s.Bytes())
			got, err := dst.UnpackMacro(in, migration.NewBridge(dst, to.op))
			require.NoError(t, err)
			assert.True(t, in.Exhausted())

			assert.Equal(t, 17, to.elems.Len())
			en := grid.NewEntityPool().Acquire(dst, 0)
			for _, e := range subtree(got) {
				want, ok := from.elems.At(e.Key())
				require.True(t, ok)
				have, ok := to.elems.At(e.Key())
				require.True(t, ok, "block of %v", e.Key())
				assert.Equal(t, want.RawVector().Data, have.RawVector().Data)

				en.Bind(e)
				for i := 0; i < en.NumCorners(); i++ {
					key := en.Corner(i).Key
					want, _ := from.verts.At(key)
					have, ok := to.verts.At(key)
					assert.True(t, ok)
					assert.Equal(t, want, have, "vertex %s", key)
				}
				// values sit in canonical order: every element finds the
				// value of its own face vertex through the twist
				for f := 0; f < en.NumFaces(); f++ {
					key := en.FaceKey(f)
					vals, ok := to.faces.At(key)
					require.True(t, ok, "face %s", key)
					want, _ := from.faces.At(key)
					assert.Equal(t, want, vals)
					for i := 0; i < kind.VerticesPerFace(); i++ {
						assert.Equal(t, faceValue(key, en.FaceVertex(f, i)), vals[en.FaceVertexPosition(f, i)])
					}
				}
			}
		})
	}
}

func oneMacro(t *testing.T, kind topology.Kind) (*grid.Grid, *grid.Element) {
	mm, err := grid.BoxMesh(1, 1, 1, kind)
	require.NoError(t, err)
	g, err := grid.NewMacroGrid(0, mm, make([]int, mm.NumElements()))
	require.NoError(t, err)
	m, ok := g.Macro(0)
	require.True(t, ok)
	return g, m
}

func TestElementDataMissingBlockPacksZeros(t *testing.T) {
	g, m := oneMacro(t, topology.Hexahedron)
	g.Refine(m)

	from, to := dof.NewElementData(2), dof.NewElementData(2)
	from.Set(m.Key(), []float64{4, 5})
	en := grid.NewEntityPool().Acquire(g, 0).Bind(m)

	s := stream.New()
	require.NoError(t, migration.NewWalker(operator.Append(operator.New[migration.Param](), from), 0).Inline(s, en))
	require.NoError(t, migration.NewWalker(operator.Append(operator.New[migration.Param](), to), 0).
		Xtract(stream.FromBytes(s.Bytes()), en))

	assert.Equal(t, 9, to.Len())
	v, ok := to.At(m.Key())
	require.True(t, ok)
	assert.Equal(t, []float64{4, 5}, v.RawVector().Data)
	v, ok = to.At(m.Children()[6].Key())
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0}, v.RawVector().Data)
	assert.Equal(t, 9., to.Sum())
}

func TestElementDataTruncatedStoresNothing(t *testing.T) {
	g, m := oneMacro(t, topology.Tetrahedron)
	from, to := dof.NewElementData(3), dof.NewElementData(3)
	from.Fill(g, blockValues)
	en := grid.NewEntityPool().Acquire(g, 0).Bind(m)

	s := stream.New()
	require.NoError(t, migration.NewWalker(operator.Append(operator.New[migration.Param](), from), 0).Inline(s, en))
	// depth header plus three values
	require.Equal(t, 4+3*8, s.Len())

	short := stream.FromBytes(s.Bytes()[:4+2*8])
	err := migration.NewWalker(operator.Append(operator.New[migration.Param](), to), 0).Xtract(short, en)
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
	assert.Equal(t, 0, to.Len())
}

func TestPrune(t *testing.T) {
	mm, err := grid.BoxMesh(2, 1, 1, topology.Hexahedron)
	require.NoError(t, err)
	g, err := grid.NewMacroGrid(0, mm, []int{0, 0})
	require.NoError(t, err)
	st := newStores(1)
	st.fill(g)

	assert.Equal(t, 2, st.elems.Len())
	assert.Equal(t, 12, st.verts.Len())
	assert.Equal(t, 11, st.faces.Len())

	keep0 := func(id int32) bool { return id == 0 }
	assert.Equal(t, 1, st.elems.Prune(keep0))
	// the four vertices and the face shared with macro 0 survive
	assert.Equal(t, 4, st.verts.Prune(keep0))
	assert.Equal(t, 5, st.faces.Prune(keep0))
	assert.Equal(t, 8, st.verts.Len())
	assert.Equal(t, 6, st.faces.Len())

	none := func(int32) bool { return false }
	st.elems.Prune(none)
	st.verts.Prune(none)
	st.faces.Prune(none)
	assert.Zero(t, st.elems.Len())
	assert.Zero(t, st.verts.Len())
	assert.Zero(t, st.faces.Len())
}

func TestElementDataSetAndSum(t *testing.T) {
	d := dof.NewElementData(3)
	assert.Equal(t, 3, d.Np())
	src := []float64{1, 2, 3}
	d.Set(grid.Key{Macro: 4}, src)
	src[0] = 100
	v, ok := d.At(grid.Key{Macro: 4})
	require.True(t, ok)
	assert.Equal(t, 1., v.AtVec(0), "Set copies")
	d.Set(grid.Key{Macro: 5}, []float64{-1, 0, 0.5})
	assert.Equal(t, 5.5, d.Sum())

	assert.Panics(t, func() { d.Set(grid.Key{}, []float64{1}) })
	assert.Panics(t, func() { dof.NewElementData(0) })
}
