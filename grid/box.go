package grid

import (
	"fmt"

	"github.com/notargets/dgmigrate/topology"
)

// kuhnPaths lists the axis orders of the six tetrahedra a cube splits into.
// Each tetrahedron runs from the cube's origin corner to its far corner
// along one monotone edge path, so neighbouring cubes split conformingly.
var kuhnPaths = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// BoxMesh generates the unit-spaced box [0,nx]x[0,ny]x[0,nz] out of nx*ny*nz
// hexahedra, or six tetrahedra per cube
func BoxMesh(nx, ny, nz int, kind topology.Kind) (*MacroMesh, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("box of %dx%dx%d cells", nx, ny, nz)
	}
	id := func(x, y, z int) int { return x + (nx+1)*(y+(ny+1)*z) }
	vertices := make([][]float64, 0, (nx+1)*(ny+1)*(nz+1))
	for z := 0; z <= nz; z++ {
		for y := 0; y <= ny; y++ {
			for x := 0; x <= nx; x++ {
				vertices = append(vertices, []float64{float64(x), float64(y), float64(z)})
			}
		}
	}

	var etov [][]int
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				switch kind {
				case topology.Hexahedron:
					etov = append(etov, []int{
						id(x, y, z), id(x, y+1, z), id(x+1, y+1, z), id(x+1, y, z),
						id(x, y, z+1), id(x, y+1, z+1), id(x+1, y+1, z+1), id(x+1, y, z+1),
					})
				case topology.Tetrahedron:
					for _, path := range kuhnPaths {
						c := [3]int{x, y, z}
						tet := []int{id(c[0], c[1], c[2])}
						for _, axis := range path {
							c[axis]++
							tet = append(tet, id(c[0], c[1], c[2]))
						}
						etov = append(etov, tet)
					}
				default:
					return nil, fmt.Errorf("box of %v: %w", kind, ErrUnsupportedElement)
				}
			}
		}
	}
	return NewMacroMesh(vertices, etov)
}
