package topology

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []Kind{Tetrahedron, Hexahedron}

func TestKindCounts(t *testing.T) {
	tests := []struct {
		kind          Kind
		nv, ne, nf, m int
	}{
		{Tetrahedron, 4, 6, 4, 3},
		{Hexahedron, 8, 12, 6, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.nv, tt.kind.NumVertices(), tt.kind.String())
		assert.Equal(t, tt.ne, tt.kind.NumEdges(), tt.kind.String())
		assert.Equal(t, tt.nf, tt.kind.NumFaces(), tt.kind.String())
		assert.Equal(t, tt.m, tt.kind.VerticesPerFace(), tt.kind.String())
	}

	k, ok := KindForVertexCount(8)
	assert.True(t, ok)
	assert.Equal(t, Hexahedron, k)
	_, ok = KindForVertexCount(6)
	assert.False(t, ok)
}

func TestTablesRoundTrip(t *testing.T) {
	for _, k := range kinds {
		top := For(k)
		require.Equal(t, k, top.Kind())

		for i := 0; i < k.NumVertices(); i++ {
			assert.Equal(t, i, top.Alu2DuneVertex(top.Dune2AluVertex(i)), "%v vertex %d", k, i)
			assert.Equal(t, i, top.Dune2AluVertex(top.Alu2DuneVertex(i)), "%v vertex %d", k, i)
		}
		for i := 0; i < k.NumEdges(); i++ {
			assert.Equal(t, i, top.Alu2DuneEdge(top.Dune2AluEdge(i)), "%v edge %d", k, i)
			assert.Equal(t, i, top.Dune2AluEdge(top.Alu2DuneEdge(i)), "%v edge %d", k, i)
		}
		for i := 0; i < k.NumFaces(); i++ {
			assert.Equal(t, i, top.Alu2DuneFace(top.Dune2AluFace(i)), "%v face %d", k, i)
			assert.Equal(t, i, top.Dune2AluFace(top.Alu2DuneFace(i)), "%v face %d", k, i)
		}
	}
}

func TestFaceVertexTablesArePermutations(t *testing.T) {
	for _, k := range kinds {
		top := For(k)
		m := k.VerticesPerFace()
		for f := 0; f < k.NumFaces(); f++ {
			seen := make([]bool, m)
			for i := 0; i < m; i++ {
				j := top.Dune2AluFaceVertex(f, i)
				require.True(t, j >= 0 && j < m, "%v face %d index %d", k, f, i)
				assert.False(t, seen[j], "%v face %d repeats %d", k, f, j)
				seen[j] = true

				assert.Equal(t, i, top.Alu2DuneFaceVertex(f, j), "%v face %d", k, f)
				assert.Equal(t, i, top.Dune2AluFaceVertex(f, top.Alu2DuneFaceVertex(f, i)), "%v face %d", k, f)
			}
		}
	}
}

// The index tables must agree with the vertex sets that define the sub-entities
// in each convention.
func TestTablesMatchGeometry(t *testing.T) {
	mapSet := func(top *ElementTopology, duneVerts []int) []int {
		out := make([]int, len(duneVerts))
		for i, v := range duneVerts {
			out[i] = top.Dune2AluVertex(v)
		}
		sort.Ints(out)
		return out
	}
	sorted := func(s []int) []int {
		out := append([]int(nil), s...)
		sort.Ints(out)
		return out
	}

	for _, k := range kinds {
		top := For(k)
		for e := 0; e < k.NumEdges(); e++ {
			assert.Equal(t, sorted(top.AluEdgeVertices(top.Dune2AluEdge(e))),
				mapSet(top, top.DuneEdgeVertices(e)), "%v edge %d", k, e)
		}
		for f := 0; f < k.NumFaces(); f++ {
			af := top.Dune2AluFace(f)
			assert.Equal(t, sorted(top.AluFaceVertices(af)),
				mapSet(top, top.DuneFaceVertices(f)), "%v face %d", k, f)

			for i, dv := range top.DuneFaceVertices(f) {
				pos := top.Dune2AluFaceVertex(f, i)
				assert.Equal(t, top.Dune2AluVertex(dv), top.AluFaceVertices(af)[pos],
					"%v face %d vertex %d", k, f, i)
			}
		}
	}
}

func TestTablesOutOfRangePanics(t *testing.T) {
	top := For(Tetrahedron)
	assert.Panics(t, func() { top.Dune2AluVertex(4) })
	assert.Panics(t, func() { top.Dune2AluFaceVertex(0, 3) })
}
