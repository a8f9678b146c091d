// Package interp fits exact-interpolation splines through solution
// trajectories and evaluates them, with derivatives, at arbitrary query
// points.
package interp

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// ExtrapMode selects what happens for queries outside the fitted range.
type ExtrapMode int

const (
	// Extrapolate continues the boundary polynomial pieces.
	Extrapolate ExtrapMode = iota
	// Zero returns 0 outside the range.
	Zero
	// Error rejects the query with matching.ErrOutOfRange.
	Error
)

// Spline interpolates exactly through its sample points with a polynomial
// of degree 1 or 3. The cubic variant uses natural boundary conditions
// (zero second derivative at both ends).
type Spline struct {
	xs   []float64
	ys   []float64
	m    []float64 // knot second derivatives, cubic only
	k    int
	mode ExtrapMode
}

// NewSpline fits a degree-k spline through (xs, ys). The xs must be strictly
// increasing. Degree 3 needs at least three points, degree 1 at least two.
func NewSpline(xs, ys []float64, k int, mode ExtrapMode) (*Spline, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("interp: %d abscissae for %d ordinates", len(xs), len(ys))
	}
	if k != 1 && k != 3 {
		return nil, fmt.Errorf("interp: unsupported degree %d", k)
	}
	minPts := 2
	if k == 3 {
		minPts = 3
	}
	if len(xs) < minPts {
		return nil, fmt.Errorf("interp: degree %d needs at least %d points, have %d", k, minPts, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("interp: abscissae not strictly increasing at index %d", i)
		}
	}

	s := &Spline{
		xs:   append([]float64(nil), xs...),
		ys:   append([]float64(nil), ys...),
		k:    k,
		mode: mode,
	}
	if k == 3 {
		if err := s.fitCubic(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// fitCubic solves the tridiagonal system for the knot second derivatives
// under natural boundary conditions.
func (s *Spline) fitCubic() error {
	n := len(s.xs)
	s.m = make([]float64, n)
	if n == 3 {
		// Single interior equation, no system to set up.
		h0 := s.xs[1] - s.xs[0]
		h1 := s.xs[2] - s.xs[1]
		rhs := (s.ys[2]-s.ys[1])/h1 - (s.ys[1]-s.ys[0])/h0
		s.m[1] = rhs / ((h0 + h1) / 3)
		return nil
	}

	nu := n - 2
	dl := make([]float64, nu-1)
	d := make([]float64, nu)
	du := make([]float64, nu-1)
	b := mat.NewVecDense(nu, nil)

	for i := 1; i <= nu; i++ {
		h0 := s.xs[i] - s.xs[i-1]
		h1 := s.xs[i+1] - s.xs[i]
		d[i-1] = (h0 + h1) / 3
		if i > 1 {
			dl[i-2] = h0 / 6
		}
		if i < nu {
			du[i-1] = h1 / 6
		}
		b.SetVec(i-1, (s.ys[i+1]-s.ys[i])/h1-(s.ys[i]-s.ys[i-1])/h0)
	}

	a := mat.NewTridiag(nu, dl, d, du)
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return fmt.Errorf("interp: singular spline system: %w", err)
	}
	for i := 0; i < nu; i++ {
		s.m[i+1] = sol.AtVec(i)
	}
	return nil
}

// Degree reports the polynomial degree the spline was fitted with.
func (s *Spline) Degree() int { return s.k }

// Range reports the fitted abscissa interval.
func (s *Spline) Range() (lo, hi float64) {
	return s.xs[0], s.xs[len(s.xs)-1]
}

// At evaluates the spline, or one of its derivatives, at x. Derivative
// orders above the degree evaluate to zero.
func (s *Spline) At(x float64, deriv int) (float64, error) {
	if deriv < 0 {
		return 0, fmt.Errorf("interp: negative derivative order %d", deriv)
	}
	lo, hi := s.Range()
	if x < lo || x > hi {
		switch s.mode {
		case Zero:
			return 0, nil
		case Error:
			return 0, fmt.Errorf("interp: x=%g outside [%g, %g]: %w", x, lo, hi, matching.ErrOutOfRange)
		}
	}

	i := s.segment(x)
	if s.k == 1 {
		return s.linearAt(i, x, deriv), nil
	}
	return s.cubicAt(i, x, deriv), nil
}

// segment locates the polynomial piece covering x, clamping out-of-range
// queries to the boundary pieces.
func (s *Spline) segment(x float64) int {
	n := len(s.xs)
	i := sort.SearchFloat64s(s.xs, x)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}

func (s *Spline) linearAt(i int, x float64, deriv int) float64 {
	slope := (s.ys[i+1] - s.ys[i]) / (s.xs[i+1] - s.xs[i])
	switch deriv {
	case 0:
		return s.ys[i] + slope*(x-s.xs[i])
	case 1:
		return slope
	}
	return 0
}

func (s *Spline) cubicAt(i int, x float64, deriv int) float64 {
	h := s.xs[i+1] - s.xs[i]
	a := (s.xs[i+1] - x) / h
	b := (x - s.xs[i]) / h

	switch deriv {
	case 0:
		return a*s.ys[i] + b*s.ys[i+1] +
			((a*a*a-a)*s.m[i]+(b*b*b-b)*s.m[i+1])*h*h/6
	case 1:
		return (s.ys[i+1]-s.ys[i])/h +
			(-(3*a*a-1)*s.m[i]+(3*b*b-1)*s.m[i+1])*h/6
	case 2:
		return a*s.m[i] + b*s.m[i+1]
	case 3:
		return (s.m[i+1] - s.m[i]) / h
	}
	return 0
}
