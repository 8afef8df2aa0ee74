package grid

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a mesh point. Key is identical on every rank: base mesh
// vertices use their file index, refinement vertices a fixed-size hash of
// the sorted keys of the corners they were averaged from.
type Vertex struct {
	Key string
	X   r3.Vec
}

func baseVertexKey(i int) string { return strconv.Itoa(i) }

// compositeKey is "h" and 16 hex digits whatever the refinement level
func compositeKey(parents []*Vertex) string {
	keys := make([]string, len(parents))
	for i, p := range parents {
		keys[i] = p.Key
	}
	sort.Strings(keys)
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString(",")
	}
	return fmt.Sprintf("h%016x", d.Sum64())
}

// vertex returns the registered vertex for key, creating it at x if needed
func (g *Grid) vertex(key string, x r3.Vec) *Vertex {
	if v, ok := g.vertices[key]; ok {
		return v
	}
	v := &Vertex{Key: key, X: x}
	g.vertices[key] = v
	return v
}

// centroid returns the shared vertex at the average of parents
func (g *Grid) centroid(parents ...*Vertex) *Vertex {
	key := compositeKey(parents)
	if v, ok := g.vertices[key]; ok {
		return v
	}
	sorted := append([]*Vertex(nil), parents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	var sum r3.Vec
	for _, p := range sorted {
		sum = r3.Add(sum, p.X)
	}
	return g.vertex(key, r3.Scale(1/float64(len(sorted)), sum))
}

// Vertex looks up a vertex by key
func (g *Grid) Vertex(key string) (*Vertex, bool) {
	v, ok := g.vertices[key]
	return v, ok
}

// NumVertices is the number of registered vertices, including any left
// behind by removed macro elements until PruneVertices runs
func (g *Grid) NumVertices() int { return len(g.vertices) }

// PruneVertices drops vertices no element references and returns the count
func (g *Grid) PruneVertices() int {
	used := make(map[string]bool, len(g.vertices))
	for _, m := range g.macros {
		m.walk(func(e *Element) {
			for _, v := range e.vertices {
				used[v.Key] = true
			}
		})
	}
	n := 0
	for k := range g.vertices {
		if !used[k] {
			delete(g.vertices, k)
			n++
		}
	}
	return n
}
