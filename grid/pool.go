package grid

// EntityPool recycles entity handles across a traversal. It is not safe
// for concurrent use; give every traversal context its own pool.
//
// Teardown policy: the pool only ever tracks handles on its free list.
// Free drops those; handles still acquired belong to their holders and are
// reclaimed by the garbage collector once unreferenced.
type EntityPool struct {
	free      []*Entity
	allocated int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{}
}

// Acquire returns the most recently released handle, or a new one. A
// recycled handle keeps its previous binding; the caller must Bind it
// before use.
func (p *EntityPool) Acquire(g *Grid, level int) *Entity {
	n := len(p.free)
	if n == 0 {
		p.allocated++
		return &Entity{grid: g, level: level}
	}
	en := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	en.grid = g
	en.level = level
	en.released = false
	return en
}

// Release returns a handle to the pool
func (p *EntityPool) Release(en *Entity) {
	if debugChecks {
		if en.released {
			panic("grid: entity handle released twice")
		}
		en.released = true
	}
	p.free = append(p.free, en)
}

// Len is the number of handles waiting on the free list
func (p *EntityPool) Len() int { return len(p.free) }

// Allocated is the number of handles the pool has ever constructed
func (p *EntityPool) Allocated() int { return p.allocated }

// Free empties the free list and returns how many handles it dropped
func (p *EntityPool) Free() int {
	n := len(p.free)
	clear(p.free)
	p.free = p.free[:0]
	return n
}
