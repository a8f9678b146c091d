package solver

import (
	"fmt"

	gosymbol "github.com/njchilds90/gosymbol"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
	"github.com/phantomachine/assortative-matching-large-firms/internal/symbolic"
)

// evaluators is the compiled numeric form of a model's expression bundle,
// valid for exactly one model version.
type evaluators struct {
	version uint64

	rhs symbolic.Vector
	jac symbolic.Matrix

	wage   symbolic.Scalar
	profit symbolic.Scalar

	inputTypes    symbolic.Scalar
	quantities    symbolic.Scalar
	spanOfControl symbolic.Scalar
	typeResource  symbolic.Scalar
}

func compileEvaluators(m matching.Model) (*evaluators, error) {
	b := symbolic.DefaultBinding(m.Params().Names())
	bundle := m.Expressions()

	e := &evaluators{version: m.Version()}

	var err error
	if e.rhs, err = symbolic.CompileVector(bundle.MuPrime, bundle.ThetaPrime, b); err != nil {
		return nil, fmt.Errorf("solver: system rhs: %w", err)
	}
	if e.jac, err = symbolic.CompileJacobian(bundle.MuPrime, bundle.ThetaPrime, b); err != nil {
		return nil, fmt.Errorf("solver: system jacobian: %w", err)
	}

	scalars := []struct {
		name string
		expr gosymbol.Expr
		dst  *symbolic.Scalar
	}{
		{"wage", bundle.Wage, &e.wage},
		{"profit", bundle.Profit, &e.profit},
		{"input types", bundle.InputTypes, &e.inputTypes},
		{"quantities", bundle.Quantities, &e.quantities},
		{"span of control", bundle.SpanOfControl, &e.spanOfControl},
		{"type resource", bundle.TypeResource, &e.typeResource},
	}
	for _, sc := range scalars {
		f, err := symbolic.Compile(sc.expr, b)
		if err != nil {
			return nil, fmt.Errorf("solver: %s: %w", sc.name, err)
		}
		*sc.dst = f
	}
	return e, nil
}

// system adapts the compiled right-hand side to the integrator interfaces
// with the parameter vector bound.
type system struct {
	rhs    symbolic.Vector
	jac    symbolic.Matrix
	params []float64
}

func (s system) Derive(x float64, v matching.State) matching.State {
	return s.rhs(x, v, s.params)
}

func (s system) Jacobian(x float64, v matching.State) matching.Jacobian {
	return s.jac(x, v, s.params)
}
