// Package symbolic compiles gosymbol expression trees into plain numeric
// closures. Expressions come out of the model layer symbolically; the
// integrators and the shooting solver only ever see the compiled form, so
// evaluation inside the inner loop costs no symbolic machinery.
package symbolic

import (
	"fmt"
	"math"
	"math/big"

	json "github.com/goccy/go-json"
	gosymbol "github.com/njchilds90/gosymbol"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Binding fixes the argument convention of a compiled evaluator: which symbol
// is the independent variable, which two symbols map onto the state
// components, and the positional order of the parameter symbols.
type Binding struct {
	Independent string
	States      [2]string
	Params      []string
}

// DefaultBinding uses the model layer's symbol convention: independent
// variable "x", state components "mu" and "theta".
func DefaultBinding(params []string) Binding {
	return Binding{
		Independent: "x",
		States:      [2]string{"mu", "theta"},
		Params:      params,
	}
}

// Scalar is a compiled scalar expression.
type Scalar func(x float64, v matching.State, p []float64) float64

// Vector is a compiled pair of expressions, one per state component.
type Vector func(x float64, v matching.State, p []float64) matching.State

// Matrix is a compiled 2x2 matrix of expressions.
type Matrix func(x float64, v matching.State, p []float64) matching.Jacobian

type node func(x float64, v matching.State, p []float64) float64

// Compile translates expr into a closure tree. Every symbol in expr must be
// bound by b; anything else fails with matching.ErrUnboundSymbol. Function
// applications outside the supported set fail with matching.ErrUnknownFunction.
func Compile(expr gosymbol.Expr, b Binding) (Scalar, error) {
	n, err := compileExpr(expr, b)
	if err != nil {
		return nil, err
	}
	return Scalar(n), nil
}

// CompileVector compiles the two right-hand-side expressions of the
// equilibrium system into a single state-valued evaluator.
func CompileVector(muPrime, thetaPrime gosymbol.Expr, b Binding) (Vector, error) {
	fMu, err := compileExpr(muPrime, b)
	if err != nil {
		return nil, fmt.Errorf("mu': %w", err)
	}
	fTheta, err := compileExpr(thetaPrime, b)
	if err != nil {
		return nil, fmt.Errorf("theta': %w", err)
	}
	return func(x float64, v matching.State, p []float64) matching.State {
		return matching.State{Mu: fMu(x, v, p), Theta: fTheta(x, v, p)}
	}, nil
}

// CompileJacobian differentiates the system right-hand side with respect to
// the state symbols and compiles the result. Implicit steppers consume it.
func CompileJacobian(muPrime, thetaPrime gosymbol.Expr, b Binding) (Matrix, error) {
	jac := gosymbol.Jacobian([]gosymbol.Expr{muPrime, thetaPrime}, []string{b.States[0], b.States[1]})
	var cells [2][2]node
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			n, err := compileExpr(jac.Get(i, j), b)
			if err != nil {
				return nil, fmt.Errorf("jacobian (%d,%d): %w", i, j, err)
			}
			cells[i][j] = n
		}
	}
	return func(x float64, v matching.State, p []float64) matching.Jacobian {
		var out matching.Jacobian
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				out[i][j] = cells[i][j](x, v, p)
			}
		}
		return out
	}, nil
}

func compileExpr(expr gosymbol.Expr, b Binding) (node, error) {
	s, err := gosymbol.ToJSON(expr)
	if err != nil {
		return nil, fmt.Errorf("symbolic: serialize: %w", err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal([]byte(s), &tree); err != nil {
		return nil, fmt.Errorf("symbolic: decode: %w", err)
	}
	paramIndex := make(map[string]int, len(b.Params))
	for i, name := range b.Params {
		paramIndex[name] = i
	}
	return compileNode(tree, b, paramIndex)
}

func compileNode(tree map[string]interface{}, b Binding, paramIndex map[string]int) (node, error) {
	typ, _ := tree["type"].(string)
	switch typ {
	case "num":
		val, _ := tree["value"].(string)
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("symbolic: malformed numeric literal %q", val)
		}
		c, _ := r.Float64()
		return func(float64, matching.State, []float64) float64 { return c }, nil

	case "sym":
		name, _ := tree["name"].(string)
		switch name {
		case b.Independent:
			return func(x float64, _ matching.State, _ []float64) float64 { return x }, nil
		case b.States[0]:
			return func(_ float64, v matching.State, _ []float64) float64 { return v.Mu }, nil
		case b.States[1]:
			return func(_ float64, v matching.State, _ []float64) float64 { return v.Theta }, nil
		}
		if i, ok := paramIndex[name]; ok {
			return func(_ float64, _ matching.State, p []float64) float64 { return p[i] }, nil
		}
		return nil, fmt.Errorf("%w: %q", matching.ErrUnboundSymbol, name)

	case "add":
		terms, err := compileChildren(tree, "terms", b, paramIndex)
		if err != nil {
			return nil, err
		}
		return func(x float64, v matching.State, p []float64) float64 {
			sum := 0.0
			for _, t := range terms {
				sum += t(x, v, p)
			}
			return sum
		}, nil

	case "mul":
		factors, err := compileChildren(tree, "factors", b, paramIndex)
		if err != nil {
			return nil, err
		}
		return func(x float64, v matching.State, p []float64) float64 {
			prod := 1.0
			for _, f := range factors {
				prod *= f(x, v, p)
			}
			return prod
		}, nil

	case "pow":
		base, ok := tree["base"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("symbolic: pow without base")
		}
		exp, ok := tree["exp"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("symbolic: pow without exp")
		}
		fb, err := compileNode(base, b, paramIndex)
		if err != nil {
			return nil, err
		}
		fe, err := compileNode(exp, b, paramIndex)
		if err != nil {
			return nil, err
		}
		return func(x float64, v matching.State, p []float64) float64 {
			return math.Pow(fb(x, v, p), fe(x, v, p))
		}, nil

	case "func":
		name, _ := tree["name"].(string)
		arg, ok := tree["arg"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("symbolic: func %q without arg", name)
		}
		fa, err := compileNode(arg, b, paramIndex)
		if err != nil {
			return nil, err
		}
		fn, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", matching.ErrUnknownFunction, name)
		}
		return func(x float64, v matching.State, p []float64) float64 {
			return fn(fa(x, v, p))
		}, nil
	}
	return nil, fmt.Errorf("symbolic: unsupported node type %q", typ)
}

func compileChildren(tree map[string]interface{}, key string, b Binding, paramIndex map[string]int) ([]node, error) {
	raw, ok := tree[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("symbolic: %s node without %s", tree["type"], key)
	}
	nodes := make([]node, len(raw))
	for i, child := range raw {
		m, ok := child.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("symbolic: malformed child under %s", key)
		}
		n, err := compileNode(m, b, paramIndex)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

var builtins = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"exp":   math.Exp,
	"ln":    math.Log,
	"abs":   math.Abs,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign": func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	},
}
