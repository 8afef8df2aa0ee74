package utils

import (
	"testing"

	"github.com/notargets/dgmigrate/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds K elements in a row with two faces each; the ends connect to
// themselves
func chain(K int) [][]int {
	EToE := make([][]int, K)
	for k := range EToE {
		EToE[k] = []int{max(k-1, 0), min(k+1, K-1)}
	}
	return EToE
}

// hexStrip is n unit hexahedra along x. Vertex index is x + (n+1)(y + 2z).
func hexStrip(t *testing.T, n int) *grid.MacroMesh {
	var verts [][]float64
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x <= n; x++ {
				verts = append(verts, []float64{float64(x), float64(y), float64(z)})
			}
		}
	}
	id := func(x, y, z int) int { return x + (n+1)*(y+2*z) }
	etov := make([][]int, n)
	for i := range etov {
		etov[i] = []int{
			id(i, 0, 0), id(i, 1, 0), id(i+1, 1, 0), id(i+1, 0, 0),
			id(i, 0, 1), id(i, 1, 1), id(i+1, 1, 1), id(i+1, 0, 1),
		}
	}
	mm, err := grid.NewMacroMesh(verts, etov)
	require.NoError(t, err)
	return mm
}

func TestGhostConnector_TwoPartitions(t *testing.T) {
	gc, err := NewGhostConnector(chain(4), []int{0, 0, 1, 1}, 0)
	require.NoError(t, err)
	require.NoError(t, gc.Verify())

	assert.Equal(t, 2, gc.NumPartitions)
	assert.Equal(t, []int{2, 2}, gc.ElemsPerPartition)
	assert.Equal(t, []int{1}, gc.GetPickIndices(0, 1))
	assert.Equal(t, []int{2}, gc.GetPickIndices(1, 0))
	assert.Empty(t, gc.GetPickIndices(0, 0))
	assert.Equal(t, []int{2}, gc.Ghosts(0))
	assert.Equal(t, []int{1}, gc.Ghosts(1))
	assert.Nil(t, gc.GetPickIndices(0, 5))
}

func TestGhostConnector_ThreePartitions(t *testing.T) {
	gc, err := NewGhostConnector(chain(4), []int{0, 1, 2, 1}, 0)
	require.NoError(t, err)
	require.NoError(t, gc.Verify())

	assert.Equal(t, []int{0}, gc.GetPickIndices(0, 1))
	assert.Equal(t, []int{1}, gc.GetPickIndices(1, 0))
	assert.Equal(t, []int{1, 3}, gc.GetPickIndices(1, 2))
	assert.Equal(t, []int{2}, gc.GetPickIndices(2, 1))
	assert.Equal(t, []int{1, 3}, gc.GetPlaceIndices(2, 1))
	assert.Equal(t, []int{0, 2}, gc.Ghosts(1))
}

func TestGhostConnector_EmptyPartition(t *testing.T) {
	gc, err := NewGhostConnector(chain(3), []int{0, 0, 2}, 4)
	require.NoError(t, err)
	require.NoError(t, gc.Verify())
	assert.Equal(t, 4, gc.NumPartitions)
	assert.Empty(t, gc.Ghosts(1))
	assert.Empty(t, gc.Ghosts(3))
	assert.Equal(t, []int{1}, gc.Ghosts(2))
}

func TestGhostConnector_VerifyDetectsCorruption(t *testing.T) {
	gc, err := NewGhostConnector(chain(4), []int{0, 0, 1, 1}, 0)
	require.NoError(t, err)

	gc.PlaceIndices[1][0].Indices = nil
	assert.Error(t, gc.Verify())

	gc, _ = NewGhostConnector(chain(4), []int{0, 0, 1, 1}, 0)
	gc.PickIndices[0][1].Indices = []int{2}
	gc.PlaceIndices[1][0].Indices = []int{2}
	assert.Error(t, gc.Verify(), "element 2 is not owned by partition 0")

	gc, _ = NewGhostConnector(chain(4), []int{0, 0, 1, 1}, 0)
	gc.PickIndices[0][1].Indices = nil
	gc.PlaceIndices[1][0].Indices = nil
	assert.Error(t, gc.Verify(), "the shared face is no longer covered")
}

func TestGhostConnector_InvalidInput(t *testing.T) {
	_, err := NewGhostConnector(nil, nil, 0)
	assert.Error(t, err)
	_, err = NewGhostConnector(chain(3), []int{0, 1}, 0)
	assert.Error(t, err)
	_, err = NewGhostConnector([][]int{{0, 7}}, []int{0}, 0)
	assert.Error(t, err)
	_, err = NewGhostConnector(chain(2), []int{0, -1}, 0)
	assert.Error(t, err)
}

func TestGhostConnector_MatchesGridGhostLayer(t *testing.T) {
	mm := hexStrip(t, 6)
	EToP := []int{0, 0, 1, 1, 2, 0}
	gc, err := NewGhostConnector(mm.EToE, EToP, 3)
	require.NoError(t, err)
	require.NoError(t, gc.Verify())

	for p := 0; p < gc.NumPartitions; p++ {
		g, err := grid.NewMacroGrid(p, mm, EToP)
		require.NoError(t, err)
		var ghosts []int
		for _, e := range g.Ghosts() {
			ghosts = append(ghosts, int(e.MacroID()))
		}
		assert.Equal(t, gc.Ghosts(p), ghosts, "partition %d", p)
	}
}
