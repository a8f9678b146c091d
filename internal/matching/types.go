package matching

import (
	"fmt"
	"math"

	gosymbol "github.com/njchilds90/gosymbol"
)

// State holds the two endogenous components of the equilibrium system at a
// given worker skill.
type State struct {
	Mu    float64 // productivity of the matched firm
	Theta float64 // firm size
}

func (s State) Add(o State) State {
	return State{s.Mu + o.Mu, s.Theta + o.Theta}
}

func (s State) Sub(o State) State {
	return State{s.Mu - o.Mu, s.Theta - o.Theta}
}

func (s State) Scale(c float64) State {
	return State{c * s.Mu, c * s.Theta}
}

// AddScaled returns s + h*o without an intermediate state.
func (s State) AddScaled(h float64, o State) State {
	return State{s.Mu + h*o.Mu, s.Theta + h*o.Theta}
}

func (s State) Norm() float64 {
	return math.Sqrt(s.Mu*s.Mu + s.Theta*s.Theta)
}

func (s State) IsValid() bool {
	return !math.IsNaN(s.Mu) && !math.IsInf(s.Mu, 0) &&
		!math.IsNaN(s.Theta) && !math.IsInf(s.Theta, 0)
}

// Jacobian of the system right-hand side with respect to (Mu, Theta).
type Jacobian [2][2]float64

// System is the numeric right-hand side of the equilibrium ODE system.
type System interface {
	Derive(x float64, v State) State
}

// Differentiable is implemented by systems with an analytic Jacobian,
// required by implicit steppers.
type Differentiable interface {
	System
	Jacobian(x float64, v State) Jacobian
}

type Stepper interface {
	Step(sys System, v State, x, h float64) State
}

// ImplicitStepper advances with an implicit scheme; the step can fail when
// the inner Newton iteration does not converge.
type ImplicitStepper interface {
	StepImplicit(sys Differentiable, v State, x, h float64) (State, error)
}

// Assortativity is the sign of the equilibrium sorting pattern, fixed for a
// given parameterization.
type Assortativity int

const (
	Positive Assortativity = iota
	Negative
)

func (a Assortativity) String() string {
	if a == Negative {
		return "negative"
	}
	return "positive"
}

func ParseAssortativity(s string) (Assortativity, error) {
	switch s {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	}
	return Positive, fmt.Errorf("unknown assortativity: %q", s)
}

// Population describes one side of the market: the support of its type
// distribution and its total mass.
type Population struct {
	Lower float64
	Upper float64
	Mass  float64
}

// ExpressionBundle is the symbolic equilibrium system supplied by a model.
// Every expression is a function of the symbols "x", "mu", "theta" and the
// model's parameter symbols.
type ExpressionBundle struct {
	MuPrime    gosymbol.Expr
	ThetaPrime gosymbol.Expr
	Wage       gosymbol.Expr
	Profit     gosymbol.Expr

	// Cross-partial complementarities used by the assortativity check.
	InputTypes    gosymbol.Expr // F_xy
	Quantities    gosymbol.Expr // F_lr
	SpanOfControl gosymbol.Expr // F_yl
	TypeResource  gosymbol.Expr // F_xr
}

// Model is the external collaborator the solver consumes. Implementations
// must bump Version whenever parameters or expressions change, so compiled
// evaluators can be invalidated.
type Model interface {
	Params() *ParamSet
	Workers() Population
	Firms() Population
	Assortativity() Assortativity
	Expressions() ExpressionBundle
	Version() uint64
}

// Row is one recorded point of a solution trajectory.
type Row struct {
	X                float64 `json:"x"` // worker skill
	FirmProductivity float64 `json:"firm_productivity"`
	FirmSize         float64 `json:"firm_size"`
	Wage             float64 `json:"wage"`
	Profit           float64 `json:"profit"`
}

func (r Row) State() State {
	return State{Mu: r.FirmProductivity, Theta: r.FirmSize}
}

// Metric accumulates a scalar diagnostic over trajectory rows.
type Metric interface {
	Name() string
	Observe(r Row)
	Value() float64
	Reset()
}
