package grid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/dgmigrate/topology"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// MacroMesh is the global coarse mesh every rank builds its grid from.
// Element vertex lists are in kernel order.
type MacroMesh struct {
	Vertices [][]float64
	EToV     [][]int
	Kinds    []topology.Kind

	// Face neighbours; a boundary face points back at its own element and face
	EToE [][]int
	EToF [][]int
}

// NewMacroMesh classifies the elements and builds face connectivity
func NewMacroMesh(vertices [][]float64, etov [][]int) (*MacroMesh, error) {
	mm := &MacroMesh{
		Vertices: vertices,
		EToV:     etov,
		Kinds:    make([]topology.Kind, len(etov)),
	}
	for k, nodes := range etov {
		kind, ok := topology.KindForVertexCount(len(nodes))
		if !ok {
			return nil, fmt.Errorf("element %d with %d vertices: %w", k, len(nodes), ErrUnsupportedElement)
		}
		mm.Kinds[k] = kind
		for _, v := range nodes {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("element %d references vertex %d of %d", k, v, len(vertices))
			}
		}
	}
	mm.buildConnectivity()
	return mm, nil
}

// LoadMesh reads a Gambit, Gmsh or SU2 mesh file. The returned partition
// map is nil unless the file carries one.
func LoadMesh(path string) (*MacroMesh, []int, error) {
	m, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read mesh %s: %w", path, err)
	}
	vertices := make([][]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = []float64{v[0], v[1], v[2]}
	}
	etov := make([][]int, len(m.EtoV))
	for k, nodes := range m.EtoV {
		etov[k] = append([]int(nil), nodes...)
	}
	mm, err := NewMacroMesh(vertices, etov)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh %s: %w", path, err)
	}
	var etop []int
	if len(m.EToP) == len(etov) {
		etop = append([]int(nil), m.EToP...)
	}
	return mm, etop, nil
}

func (mm *MacroMesh) NumElements() int { return len(mm.EToV) }

func faceSignature(verts []int) string {
	s := append([]int(nil), verts...)
	sort.Ints(s)
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "-")
}

func (mm *MacroMesh) buildConnectivity() {
	K := len(mm.EToV)
	mm.EToE = make([][]int, K)
	mm.EToF = make([][]int, K)

	type faceRef struct{ elem, face int }
	faceMap := make(map[string]faceRef)

	for e := 0; e < K; e++ {
		top := topology.For(mm.Kinds[e])
		nf := mm.Kinds[e].NumFaces()
		mm.EToE[e] = make([]int, nf)
		mm.EToF[e] = make([]int, nf)
		for f := 0; f < nf; f++ {
			// Self-connection by default
			mm.EToE[e][f] = e
			mm.EToF[e][f] = f

			local := top.AluFaceVertices(f)
			verts := make([]int, len(local))
			for i, lv := range local {
				verts[i] = mm.EToV[e][lv]
			}
			key := faceSignature(verts)
			if existing, found := faceMap[key]; found {
				mm.EToE[e][f] = existing.elem
				mm.EToF[e][f] = existing.face
				mm.EToE[existing.elem][existing.face] = e
				mm.EToF[existing.elem][existing.face] = f
				delete(faceMap, key)
			} else {
				faceMap[key] = faceRef{e, f}
			}
		}
	}
}

// Neighbors returns the distinct face neighbours of element k
func (mm *MacroMesh) Neighbors(k int) []int {
	var out []int
	seen := map[int]bool{k: true}
	for _, n := range mm.EToE[k] {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// MacroGeometry returns vertex keys and coordinates of element k in kernel order
func (mm *MacroMesh) MacroGeometry(k int) ([]string, []r3.Vec) {
	keys := make([]string, len(mm.EToV[k]))
	coords := make([]r3.Vec, len(mm.EToV[k]))
	for i, v := range mm.EToV[k] {
		keys[i] = baseVertexKey(v)
		x := mm.Vertices[v]
		coords[i] = r3.Vec{X: x[0], Y: x[1], Z: x[2]}
	}
	return keys, coords
}

// NewMacroGrid builds rank's grid: the macros etop assigns to rank, plus
// unrefined ghost copies of their face neighbours owned elsewhere
func NewMacroGrid(rank int, mm *MacroMesh, etop []int, opts ...Option) (*Grid, error) {
	if len(etop) != mm.NumElements() {
		return nil, fmt.Errorf("partition map has %d entries for %d elements", len(etop), mm.NumElements())
	}
	g := New(rank, nil)
	for _, o := range opts {
		o(g)
	}
	for k, p := range etop {
		if p != rank {
			continue
		}
		if err := g.addFromMesh(mm, k, p, false); err != nil {
			return nil, err
		}
	}
	if _, _, err := g.UpdateGhosts(mm, etop); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) addFromMesh(mm *MacroMesh, k, owner int, ghost bool) error {
	keys, coords := mm.MacroGeometry(k)
	_, err := g.AddMacro(int32(k), mm.Kinds[k], keys, coords, owner, ghost)
	return err
}

// UpdateGhosts makes the ghost layer match etop: every face neighbour of an
// owned macro that another rank owns is present as a ghost, and no other
// ghost remains
func (g *Grid) UpdateGhosts(mm *MacroMesh, etop []int) (added, removed int, err error) {
	want := make(map[int32]int)
	for _, e := range g.OwnedMacros() {
		for _, n := range mm.Neighbors(int(e.key.Macro)) {
			if etop[n] != g.rank {
				want[int32(n)] = etop[n]
			}
		}
	}
	for _, e := range g.Ghosts() {
		if owner, ok := want[e.key.Macro]; ok {
			e.owner = owner
			continue
		}
		delete(g.macros, e.key.Macro)
		removed++
	}
	ids := make([]int, 0, len(want))
	for id := range want {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		if g.Has(int32(id)) {
			continue
		}
		if err = g.addFromMesh(mm, id, want[int32(id)], true); err != nil {
			return added, removed, err
		}
		added++
	}
	if added+removed > 0 {
		g.log.Debug("ghost layer updated", zap.Int("added", added), zap.Int("removed", removed))
	}
	return added, removed, nil
}
