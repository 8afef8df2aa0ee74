// Package operator combines independently typed local operators into one
// callable aggregate without a shared interface or per-call type checks.
//
// Each concrete operator type T gets its own trampoline, instantiated once by
// the compiler, that converts an opaque pointer back to *T and calls Apply.
// The aggregate is an ordered list of (instance, trampoline) records.
package operator

import "unsafe"

// Applier is satisfied by *T for any operator type T usable with Append
type Applier[P any, T any] interface {
	*T
	Apply(p *P)
}

type record[P any] struct {
	self unsafe.Pointer
	call func(self unsafe.Pointer, p *P)
}

func trampoline[P any, T any, PT Applier[P, T]](self unsafe.Pointer, p *P) {
	PT((*T)(self)).Apply(p)
}

// Combined is an ordered aggregate of local operators. It does not own the
// operators; callers keep every registered instance alive while the
// aggregate is in use. Mutating the aggregate during Apply is undefined.
type Combined[P any] struct {
	records []record[P]
}

func New[P any]() *Combined[P] {
	return &Combined[P]{}
}

// Append registers op after every operator already present
func Append[P any, T any, PT Applier[P, T]](c *Combined[P], op PT) *Combined[P] {
	c.records = append(c.records, record[P]{
		self: unsafe.Pointer(op),
		call: trampoline[P, T, PT],
	})
	return c
}

// Apply invokes every registered operator once, in registration order
func (c *Combined[P]) Apply(p *P) {
	for _, r := range c.records {
		r.call(r.self, p)
	}
}

// Len is the number of registered operators
func (c *Combined[P]) Len() int { return len(c.records) }

// Clone returns an aggregate with a copy of the record list
func (c *Combined[P]) Clone() *Combined[P] {
	return &Combined[P]{records: append([]record[P](nil), c.records...)}
}

// Plus returns a new aggregate holding a's operators followed by b's.
// Neither input is modified.
func Plus[P any](a, b *Combined[P]) *Combined[P] {
	out := &Combined[P]{records: make([]record[P], 0, len(a.records)+len(b.records))}
	out.records = append(out.records, a.records...)
	out.records = append(out.records, b.records...)
	return out
}
