package grid

import (
	"testing"

	"github.com/notargets/dgmigrate/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countBoundaryFaces(mm *MacroMesh) int {
	n := 0
	for e := range mm.EToE {
		for _, nb := range mm.EToE[e] {
			if nb == e {
				n++
			}
		}
	}
	return n
}

func TestBoxMeshHex(t *testing.T) {
	mm, err := BoxMesh(3, 2, 1, topology.Hexahedron)
	require.NoError(t, err)
	assert.Equal(t, 6, mm.NumElements())
	assert.Len(t, mm.Vertices, 4*3*2)
	// surface area in unit squares
	assert.Equal(t, 2*(3*2+3*1+2*1), countBoundaryFaces(mm))
}

func TestBoxMeshTetIsConforming(t *testing.T) {
	mm, err := BoxMesh(2, 1, 1, topology.Tetrahedron)
	require.NoError(t, err)
	assert.Equal(t, 12, mm.NumElements())
	// every unit square on the surface is cut into two triangles
	assert.Equal(t, 2*2*(2*1+2*1+1*1), countBoundaryFaces(mm))

	g := singleRankGrid(t, mm)
	g.RefineAll(1)
	assert.Equal(t, 12*8, func() int { n := 0; g.Leaves(func(*Element) { n++ }); return n }())
}

func TestBoxMeshRejects(t *testing.T) {
	_, err := BoxMesh(0, 1, 1, topology.Hexahedron)
	assert.Error(t, err)
	_, err = BoxMesh(1, 1, 1, topology.Kind(7))
	assert.ErrorIs(t, err, ErrUnsupportedElement)
}
