package integrators

import "github.com/phantomachine/assortative-matching-large-firms/internal/matching"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys matching.System, v matching.State, x, h float64) matching.State {
	return v.AddScaled(h, sys.Derive(x, v))
}
