package operator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

type trace struct {
	calls []string
	value int
}

type named struct{ name string }

func (n *named) Apply(p *trace) { p.calls = append(p.calls, n.name) }

type adder struct{ n int }

func (a *adder) Apply(p *trace) {
	p.value += a.n
	p.calls = append(p.calls, "adder")
}

func TestApplyInRegistrationOrder(t *testing.T) {
	a, b, c := &named{"a"}, &named{"b"}, &named{"c"}
	agg := New[trace]()
	Append(agg, a)
	Append(agg, b)
	Append(agg, c)
	assert.Equal(t, 3, agg.Len())

	var p trace
	agg.Apply(&p)
	assert.Equal(t, []string{"a", "b", "c"}, p.calls)
}

func TestMixedOperatorTypes(t *testing.T) {
	agg := Append(Append(New[trace](), &named{"first"}), &adder{n: 5})
	var p trace
	agg.Apply(&p)
	agg.Apply(&p)
	assert.Equal(t, 10, p.value)
	assert.Equal(t, []string{"first", "adder", "first", "adder"}, p.calls)
}

func TestOperatorStateIsShared(t *testing.T) {
	op := &adder{n: 1}
	agg := Append(New[trace](), op)
	var p trace
	agg.Apply(&p)
	op.n = 10
	agg.Apply(&p)
	assert.Equal(t, 11, p.value, "aggregate must reference the instance, not a copy")
}

func TestEmptyIsNoop(t *testing.T) {
	var p trace
	New[trace]().Apply(&p)
	assert.Empty(t, p.calls)
}

func TestPlusConcatenates(t *testing.T) {
	A := Append(New[trace](), &named{"A"})
	B := Append(Append(New[trace](), &named{"B1"}), &named{"B2"})

	var p trace
	Plus(A, B).Apply(&p)
	assert.Equal(t, []string{"A", "B1", "B2"}, p.calls)

	// inputs untouched
	assert.Equal(t, 1, A.Len())
	assert.Equal(t, 2, B.Len())
}

func TestPlusIsAssociative(t *testing.T) {
	A := Append(New[trace](), &named{"A"})
	B := Append(Append(New[trace](), &named{"B"}), &adder{n: 2})
	C := Append(New[trace](), &named{"C"})

	var left, right trace
	Plus(Plus(A, B), C).Apply(&left)
	Plus(A, Plus(B, C)).Apply(&right)
	if diff := cmp.Diff(left, right, cmp.AllowUnexported(trace{})); diff != "" {
		t.Errorf("(A+B)+C and A+(B+C) differ (-left +right):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "adder", "C"}, left.calls)
}

func TestCloneIsIndependent(t *testing.T) {
	A := Append(New[trace](), &named{"A"})
	c := A.Clone()
	Append(c, &named{"extra"})

	var p trace
	A.Apply(&p)
	assert.Equal(t, []string{"A"}, p.calls)
	assert.Equal(t, 2, c.Len())
}
