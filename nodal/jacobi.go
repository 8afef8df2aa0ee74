package nodal

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// gamma0 is the squared norm of the degree 0 Jacobi polynomial of type
// (alpha, beta) on [-1,1]
func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Pow(2, ab1) / ab1 * math.Gamma(alpha+1) * math.Gamma(beta+1) / math.Gamma(ab1)
}

// JacobiP evaluates the orthonormal Jacobi polynomial of type (alpha, beta)
// and degree n at x
func JacobiP(x []float64, alpha, beta float64, n int) []float64 {
	g0 := gamma0(alpha, beta)
	prev := make([]float64, len(x))
	for i := range prev {
		prev[i] = 1 / math.Sqrt(g0)
	}
	if n == 0 {
		return prev
	}
	g1 := (alpha + 1) * (beta + 1) / (alpha + beta + 3) * g0
	cur := make([]float64, len(x))
	for i, xi := range x {
		cur[i] = ((alpha+beta+2)*xi/2 + (alpha-beta)/2) / math.Sqrt(g1)
	}

	aold := 2 / (2 + alpha + beta) * math.Sqrt((alpha+1)*(beta+1)/(alpha+beta+3))
	for d := 1; d < n; d++ {
		fd := float64(d)
		h1 := 2*fd + alpha + beta
		anew := 2 / (h1 + 2) * math.Sqrt((fd+1)*(fd+1+alpha+beta)*(fd+1+alpha)*(fd+1+beta)/(h1+1)/(h1+3))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2)
		for i, xi := range x {
			prev[i] = (-aold*prev[i] + (xi-bnew)*cur[i]) / anew
		}
		prev, cur = cur, prev
		aold = anew
	}
	return cur
}

// GradJacobiP is the derivative of JacobiP
func GradJacobiP(x []float64, alpha, beta float64, n int) []float64 {
	if n == 0 {
		return make([]float64, len(x))
	}
	dp := JacobiP(x, alpha+1, beta+1, n-1)
	scale := math.Sqrt(float64(n) * (float64(n) + alpha + beta + 1))
	for i := range dp {
		dp[i] *= scale
	}
	return dp
}

// JacobiGQ returns the n+1 Gauss quadrature points and weights for the
// weight (1-x)^alpha (1+x)^beta, points ascending
func JacobiGQ(alpha, beta float64, n int) (x, w []float64) {
	if n == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, []float64{2}
	}

	// Golub-Welsch: eigenpairs of the symmetric recurrence matrix
	jj := mat.NewSymDense(n+1, nil)
	for i := 0; i <= n; i++ {
		h1 := 2*float64(i) + alpha + beta
		if alpha+beta > 1e-15 || i > 0 {
			jj.SetSym(i, i, -(alpha*alpha-beta*beta)/h1/(h1+2))
		}
		if i < n {
			ip1 := float64(i + 1)
			jj.SetSym(i, i+1, 2/(h1+2)*math.Sqrt(ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1+1)/(h1+3)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(jj, true) {
		panic("nodal: Jacobi matrix eigendecomposition failed")
	}
	x = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	g0 := gamma0(alpha, beta)
	w = make([]float64, n+1)
	for i := range w {
		v := vecs.At(0, i)
		w[i] = v * v * g0
	}
	return x, w
}

// JacobiGL returns the n+1 Gauss-Lobatto points: both end points and the
// zeros of the derivative of the degree n polynomial
func JacobiGL(alpha, beta float64, n int) []float64 {
	switch n {
	case 0:
		return []float64{0}
	case 1:
		return []float64{-1, 1}
	}
	inner, _ := JacobiGQ(alpha+1, beta+1, n-2)
	x := make([]float64, n+1)
	x[0], x[n] = -1, 1
	copy(x[1:n], inner)
	return x
}
