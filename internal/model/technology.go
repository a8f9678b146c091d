package model

import gosymbol "github.com/njchilds90/gosymbol"

// NestedCES builds the production technology
//
//	F(x, y, l, r) = A(x, y)^alpha * B(l, r)^beta
//
// where A aggregates the worker and firm types and B the quantity inputs
// (labor and resources), each with constant elasticity of substitution. The
// exponents alpha, beta and the weights omega_A, omega_B stay symbolic; the
// elasticities are baked in numerically because sigma = 1 collapses the CES
// aggregator to Cobb-Douglas, a structurally different expression.
func NestedCES(sigmaA, sigmaB float64) gosymbol.Expr {
	a := cesInner("x", "y", "omega_A", sigmaA)
	b := cesInner("l", "r", "omega_B", sigmaB)
	return gosymbol.MulOf(
		gosymbol.PowOf(a, gosymbol.S("alpha")),
		gosymbol.PowOf(b, gosymbol.S("beta")),
	)
}

func cesInner(q1, q2, omega string, sigma float64) gosymbol.Expr {
	w := gosymbol.S(omega)
	oneMinusW := gosymbol.AddOf(gosymbol.N(1), gosymbol.MulOf(gosymbol.N(-1), w))

	if sigma == 1 {
		return gosymbol.MulOf(
			gosymbol.PowOf(gosymbol.S(q1), w),
			gosymbol.PowOf(gosymbol.S(q2), oneMinusW),
		)
	}

	rho := (sigma - 1) / sigma
	return gosymbol.PowOf(
		gosymbol.AddOf(
			gosymbol.MulOf(w, gosymbol.PowOf(gosymbol.S(q1), gosymbol.NFloat(rho))),
			gosymbol.MulOf(oneMinusW, gosymbol.PowOf(gosymbol.S(q2), gosymbol.NFloat(rho))),
		),
		gosymbol.NFloat(1/rho),
	)
}
