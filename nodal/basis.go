// Package nodal builds the reference nodes and orthonormal modal bases of
// the tetrahedron and the hexahedron, for per-element value blocks stored
// at nodal points.
//
// Reference elements live on [-1,1]. The tetrahedron has corners
// (-1,-1,-1), (1,-1,-1), (-1,1,-1), (-1,-1,1) and the hexahedron is the
// cube with lexicographic corners, both in dune corner order.
package nodal

import (
	"fmt"
	"math"

	"github.com/notargets/dgmigrate/topology"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Np is the node count of a degree order basis
func Np(kind topology.Kind, order int) int {
	n := order + 1
	if kind == topology.Hexahedron {
		return n * n * n
	}
	return n * (n + 1) * (n + 2) / 6
}

// Basis holds the nodes of one reference element and the Vandermonde
// matrix of its orthonormal modes evaluated at them
type Basis struct {
	kind    topology.Kind
	order   int
	r, s, t []float64
	v, vinv *mat.Dense
	volume  float64
}

func NewBasis(kind topology.Kind, order int) (*Basis, error) {
	if order < 0 {
		return nil, fmt.Errorf("nodal: negative order %d", order)
	}
	b := &Basis{kind: kind, order: order}
	switch kind {
	case topology.Tetrahedron:
		b.r, b.s, b.t = tetNodes(order)
		b.v = tetVandermonde(order, b.r, b.s, b.t)
		b.volume = 4. / 3.
	case topology.Hexahedron:
		b.r, b.s, b.t = hexNodes(order)
		b.v = hexVandermonde(order, b.r, b.s, b.t)
		b.volume = 8
	default:
		return nil, fmt.Errorf("nodal: no basis for %v", kind)
	}
	b.vinv = new(mat.Dense)
	if err := b.vinv.Inverse(b.v); err != nil {
		return nil, fmt.Errorf("nodal: %v order %d Vandermonde: %w", kind, order, err)
	}
	return b, nil
}

func (b *Basis) Kind() topology.Kind { return b.kind }
func (b *Basis) Order() int          { return b.order }
func (b *Basis) Np() int             { return len(b.r) }

// Nodes returns the reference coordinates of the nodes
func (b *Basis) Nodes() (r, s, t []float64) { return b.r, b.s, b.t }

// V is the Vandermonde matrix, V[i][j] = mode j at node i
func (b *Basis) V() mat.Matrix { return b.v }

// Modes converts nodal values into modal coefficients
func (b *Basis) Modes(u []float64) []float64 {
	if len(u) != b.Np() {
		panic(fmt.Sprintf("nodal: %d values for %d nodes", len(u), b.Np()))
	}
	c := mat.NewVecDense(b.Np(), nil)
	c.MulVec(b.vinv, mat.NewVecDense(len(u), u))
	return c.RawVector().Data
}

// Mean is the volume average of the interpolant of u; only the constant
// mode contributes
func (b *Basis) Mean(u []float64) float64 {
	if len(u) != b.Np() {
		panic(fmt.Sprintf("nodal: %d values for %d nodes", len(u), b.Np()))
	}
	return floats.Dot(b.vinv.RawRowView(0), u) / math.Sqrt(b.volume)
}

// Physical maps the nodes into the element with the given dune-ordered
// corners: affinely for tetrahedra, trilinearly for hexahedra
func (b *Basis) Physical(corners []r3.Vec) []r3.Vec {
	if len(corners) != b.kind.NumVertices() {
		panic(fmt.Sprintf("nodal: %d corners for %v", len(corners), b.kind))
	}
	out := make([]r3.Vec, b.Np())
	for i := range out {
		r, s, t := b.r[i], b.s[i], b.t[i]
		var p r3.Vec
		if b.kind == topology.Tetrahedron {
			p = r3.Scale(-(1+r+s+t)/2, corners[0])
			p = r3.Add(p, r3.Scale((1+r)/2, corners[1]))
			p = r3.Add(p, r3.Scale((1+s)/2, corners[2]))
			p = r3.Add(p, r3.Scale((1+t)/2, corners[3]))
		} else {
			for c, x := range corners {
				w := linear(r, c&1) * linear(s, c>>1&1) * linear(t, c>>2&1)
				p = r3.Add(p, r3.Scale(w, x))
			}
		}
		out[i] = p
	}
	return out
}

func linear(x float64, hi int) float64 {
	if hi == 1 {
		return (1 + x) / 2
	}
	return (1 - x) / 2
}

// tetNodes is the equidistant lattice, r fastest; order 0 is the centroid
func tetNodes(order int) (r, s, t []float64) {
	if order == 0 {
		return []float64{-0.5}, []float64{-0.5}, []float64{-0.5}
	}
	h := 2 / float64(order)
	for k := 0; k <= order; k++ {
		for j := 0; j <= order-k; j++ {
			for i := 0; i <= order-j-k; i++ {
				r = append(r, -1+h*float64(i))
				s = append(s, -1+h*float64(j))
				t = append(t, -1+h*float64(k))
			}
		}
	}
	return r, s, t
}

// hexNodes is the tensor product of Gauss-Lobatto points, r fastest
func hexNodes(order int) (r, s, t []float64) {
	g := JacobiGL(0, 0, order)
	for _, z := range g {
		for _, y := range g {
			for _, x := range g {
				r = append(r, x)
				s = append(s, y)
				t = append(t, z)
			}
		}
	}
	return r, s, t
}

func hexVandermonde(order int, r, s, t []float64) *mat.Dense {
	n := order + 1
	v := mat.NewDense(len(r), n*n*n, nil)
	col := 0
	for k := 0; k < n; k++ {
		pt := JacobiP(t, 0, 0, k)
		for j := 0; j < n; j++ {
			ps := JacobiP(s, 0, 0, j)
			for i := 0; i < n; i++ {
				pr := JacobiP(r, 0, 0, i)
				for row := range r {
					v.Set(row, col, pr[row]*ps[row]*pt[row])
				}
				col++
			}
		}
	}
	return v
}

// rstToABC collapses the tetrahedron onto the cube
func rstToABC(r, s, t []float64) (a, b, c []float64) {
	a = make([]float64, len(r))
	b = make([]float64, len(r))
	c = append([]float64(nil), t...)
	for i := range r {
		if math.Abs(s[i]+t[i]) > 1e-12 {
			a[i] = 2*(1+r[i])/(-s[i]-t[i]) - 1
		} else {
			a[i] = -1
		}
		if math.Abs(t[i]-1) > 1e-12 {
			b[i] = 2*(1+s[i])/(1-t[i]) - 1
		} else {
			b[i] = -1
		}
	}
	return a, b, c
}

// simplexP evaluates the orthonormal tetrahedron mode (i,j,k)
func simplexP(a, b, c []float64, i, j, k int) []float64 {
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	h3 := JacobiP(c, float64(2*(i+j)+2), 0, k)
	out := make([]float64, len(a))
	for n := range out {
		out[n] = 2 * math.Sqrt2 * h1[n] * h2[n] * math.Pow(1-b[n], float64(i)) *
			h3[n] * math.Pow(1-c[n], float64(i+j))
	}
	return out
}

func tetVandermonde(order int, r, s, t []float64) *mat.Dense {
	a, b, c := rstToABC(r, s, t)
	v := mat.NewDense(len(r), Np(topology.Tetrahedron, order), nil)
	col := 0
	for i := 0; i <= order; i++ {
		for j := 0; j <= order-i; j++ {
			for k := 0; k <= order-i-j; k++ {
				v.SetCol(col, simplexP(a, b, c, i, j, k))
				col++
			}
		}
	}
	return v
}
