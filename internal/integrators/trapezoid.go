package integrators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Trapezoid is the implicit trapezoidal rule. Each step solves
//
//	v1 = v0 + h/2 * (f(x0, v0) + f(x1, v1))
//
// for v1 by Newton iteration, using the system's analytic Jacobian. It is
// A-stable, which helps near the boundary where the equilibrium system
// stiffens as the firm distribution runs out of mass.
type Trapezoid struct {
	maxIter int
	tol     float64
}

func NewTrapezoid() *Trapezoid {
	return &Trapezoid{maxIter: 25, tol: 1e-12}
}

func (tr *Trapezoid) Step(sys matching.System, v matching.State, x, h float64) matching.State {
	d, ok := sys.(matching.Differentiable)
	if !ok {
		// No Jacobian available, fall back to an explicit step.
		return NewRK4().Step(sys, v, x, h)
	}
	next, err := tr.StepImplicit(d, v, x, h)
	if err != nil {
		return NewRK4().Step(sys, v, x, h)
	}
	return next
}

func (tr *Trapezoid) StepImplicit(sys matching.Differentiable, v matching.State, x, h float64) (matching.State, error) {
	f0 := sys.Derive(x, v)
	x1 := x + h

	// Explicit Euler predictor.
	cur := v.AddScaled(h, f0)

	a := mat.NewDense(2, 2, nil)
	rhs := mat.NewVecDense(2, nil)
	var delta mat.VecDense

	for iter := 0; iter < tr.maxIter; iter++ {
		f1 := sys.Derive(x1, cur)

		// Residual g(v1) = v1 - v0 - h/2 (f0 + f1).
		g := cur.Sub(v).Sub(f0.Add(f1).Scale(h / 2))
		if g.Norm() < tr.tol {
			return cur, nil
		}

		// g'(v1) = I - h/2 J(x1, v1).
		j := sys.Jacobian(x1, cur)
		a.Set(0, 0, 1-h/2*j[0][0])
		a.Set(0, 1, -h/2*j[0][1])
		a.Set(1, 0, -h/2*j[1][0])
		a.Set(1, 1, 1-h/2*j[1][1])
		rhs.SetVec(0, -g.Mu)
		rhs.SetVec(1, -g.Theta)

		if err := delta.SolveVec(a, rhs); err != nil {
			return matching.State{}, fmt.Errorf("trapezoid: singular newton system at x=%g: %w", x1, err)
		}

		cur = cur.Add(matching.State{Mu: delta.AtVec(0), Theta: delta.AtVec(1)})
		if !cur.IsValid() {
			return matching.State{}, fmt.Errorf("trapezoid: %w at x=%g", matching.ErrInvalidState, x1)
		}
	}
	return matching.State{}, fmt.Errorf("trapezoid: newton iteration did not converge at x=%g: %w", x1, matching.ErrIntegratorFailure)
}
