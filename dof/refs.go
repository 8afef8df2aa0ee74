package dof

// refs tracks which macro elements reference a shared entity, so the entity
// can be dropped once none of them is owned
type refs map[string]map[int32]struct{}

func (r refs) add(key string, macro int32) {
	m, ok := r[key]
	if !ok {
		m = make(map[int32]struct{}, 2)
		r[key] = m
	}
	m[macro] = struct{}{}
}

// prune removes rejected macros and returns the keys left unreferenced
func (r refs) prune(keep func(int32) bool) []string {
	var dead []string
	for key, m := range r {
		for id := range m {
			if !keep(id) {
				delete(m, id)
			}
		}
		if len(m) == 0 {
			delete(r, key)
			dead = append(dead, key)
		}
	}
	return dead
}
