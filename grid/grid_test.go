package grid

import (
	"testing"

	"github.com/notargets/dgmigrate/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// twoHexMesh is the box [0,2]x[0,1]x[0,1] split at x=1. Vertex index is
// x + 3y + 6z; element vertices are listed in kernel order.
func twoHexMesh(t *testing.T) *MacroMesh {
	var verts [][]float64
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				verts = append(verts, []float64{float64(x), float64(y), float64(z)})
			}
		}
	}
	etov := [][]int{
		{0, 3, 4, 1, 6, 9, 10, 7},
		{1, 4, 5, 2, 7, 10, 11, 8},
	}
	mm, err := NewMacroMesh(verts, etov)
	require.NoError(t, err)
	return mm
}

// twoTetMesh has two tetrahedra sharing the face {1,2,3}
func twoTetMesh(t *testing.T) *MacroMesh {
	verts := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
	etov := [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}}
	mm, err := NewMacroMesh(verts, etov)
	require.NoError(t, err)
	return mm
}

func singleRankGrid(t *testing.T, mm *MacroMesh) *Grid {
	g, err := NewMacroGrid(0, mm, make([]int, mm.NumElements()))
	require.NoError(t, err)
	return g
}

func TestMacroMeshConnectivity(t *testing.T) {
	mm := twoHexMesh(t)
	// x=1 is dune face 1 of element 0 (kernel face 4) and dune face 0 of
	// element 1 (kernel face 2)
	assert.Equal(t, 1, mm.EToE[0][4])
	assert.Equal(t, 2, mm.EToF[0][4])
	assert.Equal(t, 0, mm.EToE[1][2])
	assert.Equal(t, 4, mm.EToF[1][2])

	boundary := 0
	for e := range mm.EToE {
		for f, n := range mm.EToE[e] {
			if n == e {
				boundary++
				assert.Equal(t, f, mm.EToF[e][f])
			}
		}
	}
	assert.Equal(t, 10, boundary)
	assert.Equal(t, []int{1}, mm.Neighbors(0))

	tets := twoTetMesh(t)
	assert.Equal(t, []int{0}, tets.Neighbors(1))
	// face {1,2,3} is opposite vertex 0 of element 0 and vertex 3 of element 1
	assert.Equal(t, 1, tets.EToE[0][0])
	assert.Equal(t, 3, tets.EToF[0][0])
}

func TestMacroMeshRejectsPrisms(t *testing.T) {
	verts := make([][]float64, 6)
	for i := range verts {
		verts[i] = []float64{float64(i), 0, 0}
	}
	_, err := NewMacroMesh(verts, [][]int{{0, 1, 2, 3, 4, 5}})
	assert.ErrorIs(t, err, ErrUnsupportedElement)

	_, err = NewMacroMesh(verts, [][]int{{0, 1, 2, 9}})
	assert.Error(t, err)
}

func TestRefinementSharesVertices(t *testing.T) {
	g := singleRankGrid(t, twoHexMesh(t))
	assert.Equal(t, 12, g.NumVertices())
	g.RefineAll(1)
	// two 3x3x3 lattices sharing a 3x3 face
	assert.Equal(t, 45, g.NumVertices())
	assert.Equal(t, 1, g.MaxLevel())

	tg := singleRankGrid(t, twoTetMesh(t))
	tg.RefineAll(1)
	// 5 corners + 9 distinct edge midpoints
	assert.Equal(t, 14, tg.NumVertices())

	n := 0
	tg.Leaves(func(e *Element) {
		n++
		assert.Equal(t, 1, e.Level())
		assert.Equal(t, topology.Tetrahedron, e.Kind())
	})
	assert.Equal(t, 16, n)
}

func TestVertexKeysStayFixedSize(t *testing.T) {
	leafKeys := func(g *Grid) map[string]r3.Vec {
		out := make(map[string]r3.Vec)
		g.Leaves(func(e *Element) {
			for i := 0; i < e.NumVertices(); i++ {
				v := e.Vertex(i)
				out[v.Key] = v.X
			}
		})
		return out
	}
	g := singleRankGrid(t, twoHexMesh(t))
	g.RefineAll(3)
	// two 9x9x9 lattices sharing a 9x9 face
	assert.Equal(t, 1377, g.NumVertices())
	keys := leafKeys(g)
	assert.Len(t, keys, 1377)
	points := make(map[r3.Vec]bool, len(keys))
	for k, x := range keys {
		assert.LessOrEqual(t, len(k), 17, "key %q", k)
		points[x] = true
	}
	assert.Len(t, points, 1377, "one key per point")

	other, err := NewMacroGrid(1, twoHexMesh(t), []int{1, 1})
	require.NoError(t, err)
	other.RefineAll(3)
	assert.Equal(t, keys, leafKeys(other))
}

func TestHexChildrenAreLexicographic(t *testing.T) {
	g := singleRankGrid(t, twoHexMesh(t))
	m, ok := g.Macro(0)
	require.True(t, ok)
	g.Refine(m)

	pool := NewEntityPool()
	en := pool.Acquire(g, 1)
	for c, child := range m.Children() {
		en.Bind(child)
		a, b, cc := float64(c&1), float64(c>>1&1), float64(c>>2&1)
		for d := 0; d < 8; d++ {
			want := r3.Vec{
				X: (a + float64(d&1)) / 2,
				Y: (b + float64(d>>1&1)) / 2,
				Z: (cc + float64(d>>2&1)) / 2,
			}
			assert.InDelta(t, 0, r3.Norm(r3.Sub(want, en.Corner(d).X)), 1e-14, "child %d corner %d", c, d)
		}
		assert.Equal(t, m.Key().Child(c), child.Key())
	}
}

func TestSharedFaceTwists(t *testing.T) {
	for _, mm := range []*MacroMesh{twoHexMesh(t), twoTetMesh(t)} {
		g := singleRankGrid(t, mm)
		g.RefineAll(1)

		pool := NewEntityPool()
		a, b := pool.Acquire(g, 0), pool.Acquire(g, 0)

		// every face shared by two leaves must resolve to the same canonical
		// vertex at every position, whichever side it is viewed from
		faces := make(map[string][]string)
		shared := 0
		g.Leaves(func(e *Element) {
			a.Bind(e)
			for f := 0; f < a.NumFaces(); f++ {
				m := a.Kind().VerticesPerFace()
				canon := make([]string, m)
				for i := 0; i < m; i++ {
					canon[a.FaceVertexPosition(f, i)] = a.FaceVertex(f, i).Key
				}
				key := a.FaceKey(f)
				if prev, ok := faces[key]; ok {
					shared++
					assert.Equal(t, prev, canon, "face %s", key)
				} else {
					faces[key] = canon
				}
			}
		})
		assert.Positive(t, shared)

		m0, _ := g.Macro(0)
		m1, _ := g.Macro(1)
		a.Bind(m0)
		b.Bind(m1)
		fa := -1
		for f := 0; f < a.NumFaces(); f++ {
			for h := 0; h < b.NumFaces(); h++ {
				if a.FaceKey(f) == b.FaceKey(h) {
					fa = f
				}
			}
		}
		assert.NotEqual(t, -1, fa, "macros share a face")
	}
}

func TestHexFaceTwistValues(t *testing.T) {
	g := singleRankGrid(t, twoHexMesh(t))
	m0, _ := g.Macro(0)
	m1, _ := g.Macro(1)
	assert.Equal(t, m0.FaceKey(4), m1.FaceKey(2))
	assert.Equal(t, -2, m0.FaceTwist(4))
	assert.Equal(t, 0, m1.FaceTwist(2))
}

func TestChildIterator(t *testing.T) {
	g := singleRankGrid(t, twoTetMesh(t))
	m, _ := g.Macro(0)
	g.Refine(m)
	g.Refine(m.Children()[1])
	assert.Equal(t, 2, m.Depth())

	var got []Key
	it := NewChildIterator(m, 2)
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		got = append(got, e.Key())
	}
	want := []Key{m.Key().Child(0), m.Key().Child(1)}
	for i := 0; i < 8; i++ {
		want = append(want, m.Key().Child(1).Child(i))
	}
	for i := 2; i < 8; i++ {
		want = append(want, m.Key().Child(i))
	}
	assert.Equal(t, want, got)

	n := 0
	it = NewChildIterator(m, 1)
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	assert.Equal(t, 8, n, "level bound must cut the walk")

	_, ok := NewChildIterator(m, 0).Next()
	assert.False(t, ok)
}

func TestCoarsenAndPrune(t *testing.T) {
	g := singleRankGrid(t, twoTetMesh(t))
	g.RefineAll(2)
	assert.Equal(t, 2, g.MaxLevel())
	for _, m := range g.OwnedMacros() {
		g.Coarsen(m)
	}
	assert.Equal(t, 0, g.MaxLevel())
	assert.Positive(t, g.PruneVertices())
	assert.Equal(t, 5, g.NumVertices())
}

func TestGhostLayer(t *testing.T) {
	mm := twoHexMesh(t)
	etop := []int{0, 1}
	g0, err := NewMacroGrid(0, mm, etop)
	require.NoError(t, err)

	require.Len(t, g0.OwnedMacros(), 1)
	ghosts := g0.Ghosts()
	require.Len(t, ghosts, 1)
	assert.Equal(t, int32(1), ghosts[0].MacroID())
	assert.Equal(t, 1, ghosts[0].Owner())

	// move everything to rank 0: the ghost must go
	m1 := ghosts[0]
	require.NoError(t, g0.RemoveMacro(m1.MacroID()))
	_, err = g0.AddMacro(1, topology.Hexahedron, []string{"1", "4", "5", "2", "7", "10", "11", "8"},
		make([]r3.Vec, 8), 0, false)
	require.NoError(t, err)
	added, removed, err := g0.UpdateGhosts(mm, []int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, removed)
	assert.Empty(t, g0.Ghosts())

	assert.ErrorIs(t, g0.RemoveMacro(7), ErrUnknownMacro)
	_, err = NewMacroGrid(0, mm, []int{0})
	assert.Error(t, err)
}
