package integrators

import "github.com/phantomachine/assortative-matching-large-firms/internal/matching"

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys matching.System, v matching.State, x, h float64) matching.State {
	k1 := sys.Derive(x, v)
	k2 := sys.Derive(x+h*0.5, v.AddScaled(h*0.5, k1))
	k3 := sys.Derive(x+h*0.5, v.AddScaled(h*0.5, k2))
	k4 := sys.Derive(x+h, v.AddScaled(h, k3))

	incr := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return v.AddScaled(h/6.0, incr)
}
