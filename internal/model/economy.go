// Package model builds the economic environment the solver consumes: nested
// CES production technology, worker and firm populations with lognormal or
// uniform type distributions, and the symbolic derivation of the matching
// equilibrium system.
package model

import (
	"fmt"

	gosymbol "github.com/njchilds90/gosymbol"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// techParams are the symbols every economy's parameter set must carry.
var techParams = []string{"alpha", "beta", "omega_A", "omega_B", "sigma_A", "sigma_B"}

// Options configures an economy. The population supports are cut at the
// distribution quantiles, following the convention of trimming 1% of mass
// off each tail.
type Options struct {
	Params *matching.ParamSet

	WorkerDist Distribution
	FirmDist   Distribution
	WorkerMass float64
	FirmMass   float64

	// Quantiles at which the population supports are truncated.
	// Zero values default to 0.01 and 0.99.
	LowerQuantile float64
	UpperQuantile float64

	Assortativity matching.Assortativity
}

// Economy implements matching.Model. Parameter mutation re-derives the
// expression bundle and bumps the version counter, so downstream compiled
// evaluators can detect staleness.
type Economy struct {
	params     *matching.ParamSet
	workerDist Distribution
	firmDist   Distribution
	workers    matching.Population
	firms      matching.Population
	assort     matching.Assortativity
	bundle     matching.ExpressionBundle
	version    uint64
}

func NewEconomy(opts Options) (*Economy, error) {
	if opts.Params == nil {
		return nil, fmt.Errorf("model: nil parameter set")
	}
	for _, name := range techParams {
		if !opts.Params.Has(name) {
			return nil, fmt.Errorf("model: %w: parameter set is missing %q", matching.ErrUnknownParam, name)
		}
	}
	if opts.WorkerDist == nil || opts.FirmDist == nil {
		return nil, fmt.Errorf("model: both population distributions are required")
	}
	if opts.WorkerMass <= 0 || opts.FirmMass <= 0 {
		return nil, fmt.Errorf("model: population masses must be positive")
	}

	lo, hi := opts.LowerQuantile, opts.UpperQuantile
	if lo == 0 {
		lo = 0.01
	}
	if hi == 0 {
		hi = 0.99
	}
	if !(lo < hi) || lo < 0 || hi > 1 {
		return nil, fmt.Errorf("model: quantiles [%g, %g] out of order", lo, hi)
	}

	e := &Economy{
		params:     opts.Params.Clone(),
		workerDist: opts.WorkerDist,
		firmDist:   opts.FirmDist,
		workers: matching.Population{
			Lower: opts.WorkerDist.Quantile(lo),
			Upper: opts.WorkerDist.Quantile(hi),
			Mass:  opts.WorkerMass,
		},
		firms: matching.Population{
			Lower: opts.FirmDist.Quantile(lo),
			Upper: opts.FirmDist.Quantile(hi),
			Mass:  opts.FirmMass,
		},
		assort:  opts.Assortativity,
		version: 1,
	}
	e.derive()
	return e, nil
}

func (e *Economy) Params() *matching.ParamSet             { return e.params }
func (e *Economy) Workers() matching.Population           { return e.workers }
func (e *Economy) Firms() matching.Population             { return e.firms }
func (e *Economy) Assortativity() matching.Assortativity  { return e.assort }
func (e *Economy) Expressions() matching.ExpressionBundle { return e.bundle }
func (e *Economy) Version() uint64                        { return e.version }

// SetParam updates a parameter and re-derives the equilibrium expressions.
// The version counter is bumped even when only the value changed, because
// the elasticities change the expression structure at sigma = 1.
func (e *Economy) SetParam(name string, value float64) error {
	if err := e.params.Set(name, value); err != nil {
		return err
	}
	e.derive()
	e.version++
	return nil
}

// Clone returns an independent economy with the same parameterization,
// for running comparative statics in parallel.
func (e *Economy) Clone() *Economy {
	c := *e
	c.params = e.params.Clone()
	return &c
}

// derive rebuilds the symbolic equilibrium system from the technology and
// the population densities. With worker skill x matched to firm
// productivity mu at firm size theta, the system is
//
//	mu'    = s * (Mw hw(x)) / (Mf hf(mu) theta)       s = +1 under positive sorting
//	theta' = (Fx/theta - Fxl - mu' Fyl) / Fll
//
// with all partials of F evaluated at (x, y=mu, l=theta, r=1). Wages are the
// marginal product of labor and profits the residual output per resource.
func (e *Economy) derive() {
	sigmaA, _ := e.params.Get("sigma_A")
	sigmaB, _ := e.params.Get("sigma_B")
	f := NestedCES(sigmaA, sigmaB)

	fx := f.Diff("x")
	fl := f.Diff("l")
	fxl := fx.Diff("l")
	fyl := f.Diff("y").Diff("l")
	fll := fl.Diff("l")
	fxy := fx.Diff("y")
	flr := fl.Diff("r")
	fxr := fx.Diff("r")

	theta := gosymbol.S("theta")
	invTheta := gosymbol.PowOf(theta, gosymbol.N(-1))

	sign := int64(1)
	if e.assort == matching.Negative {
		sign = -1
	}
	ratio := gosymbol.MulOf(
		gosymbol.NFloat(e.workers.Mass/e.firms.Mass),
		e.workerDist.Density(gosymbol.S("x")),
		gosymbol.PowOf(e.firmDist.Density(gosymbol.S("mu")), gosymbol.N(-1)),
	)
	muPrime := gosymbol.MulOf(gosymbol.N(sign), ratio, invTheta)

	thetaPrime := gosymbol.MulOf(
		gosymbol.AddOf(
			gosymbol.MulOf(atMatch(fx), invTheta),
			gosymbol.MulOf(gosymbol.N(-1), atMatch(fxl)),
			gosymbol.MulOf(gosymbol.N(-1), muPrime, atMatch(fyl)),
		),
		gosymbol.PowOf(atMatch(fll), gosymbol.N(-1)),
	)

	wage := atMatch(fl)
	profit := gosymbol.AddOf(atMatch(f), gosymbol.MulOf(gosymbol.N(-1), theta, wage))

	e.bundle = matching.ExpressionBundle{
		MuPrime:       muPrime,
		ThetaPrime:    thetaPrime,
		Wage:          wage,
		Profit:        profit,
		InputTypes:    atMatch(fxy),
		Quantities:    atMatch(flr),
		SpanOfControl: atMatch(fyl),
		TypeResource:  atMatch(fxr),
	}
}

// atMatch substitutes the equilibrium assignment into a technology partial:
// the firm type is the matched productivity, labor per resource is the firm
// size, and resources are normalized to one.
func atMatch(expr gosymbol.Expr) gosymbol.Expr {
	return expr.
		Sub("y", gosymbol.S("mu")).
		Sub("l", gosymbol.S("theta")).
		Sub("r", gosymbol.N(1))
}
