//go:build dgdebug

package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleasedHandlePanics(t *testing.T) {
	g := singleRankGrid(t, twoTetMesh(t))
	m, _ := g.Macro(0)
	pool := NewEntityPool()
	en := pool.Acquire(g, 0).Bind(m)
	pool.Release(en)

	assert.Panics(t, func() { en.Corner(0) })
	for name, use := range map[string]func(){
		"Ghost":      func() { en.Ghost() },
		"NumCorners": func() { en.NumCorners() },
		"NumFaces":   func() { en.NumFaces() },
		"Kind":       func() { en.Kind() },
	} {
		assert.Panics(t, use, name)
	}
	assert.Panics(t, func() { pool.Release(en) })

	en = pool.Acquire(g, 0)
	assert.NotPanics(t, func() { en.Bind(m).Corner(0) })
}
