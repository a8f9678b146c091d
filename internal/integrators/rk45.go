package integrators

import (
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince pair with an embedded fourth-order error
// estimate.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(sys matching.System, v matching.State, x, h float64) matching.State {
	next, _, _ := r.StepAdaptive(sys, v, x, h, 1e-6)
	return next
}

// StepAdaptive takes one step of size h and returns the new state together
// with a suggested size for the next step. The step itself is always taken;
// the caller decides whether to reject and retry.
func (r *RK45) StepAdaptive(sys matching.System, v matching.State, x, h, tol float64) (matching.State, float64, error) {
	k1 := sys.Derive(x, v)
	k2 := sys.Derive(x+a2*h, v.AddScaled(h*b21, k1))
	k3 := sys.Derive(x+a3*h, v.AddScaled(h*b31, k1).AddScaled(h*b32, k2))
	k4 := sys.Derive(x+a4*h, v.AddScaled(h*b41, k1).AddScaled(h*b42, k2).AddScaled(h*b43, k3))
	k5 := sys.Derive(x+a5*h, v.AddScaled(h*b51, k1).AddScaled(h*b52, k2).AddScaled(h*b53, k3).AddScaled(h*b54, k4))
	k6 := sys.Derive(x+h, v.AddScaled(h*b61, k1).AddScaled(h*b62, k2).AddScaled(h*b63, k3).AddScaled(h*b64, k4).AddScaled(h*b65, k5))

	next := v.AddScaled(h*c1, k1).AddScaled(h*c3, k3).AddScaled(h*c4, k4).AddScaled(h*c5, k5).AddScaled(h*c6, k6)

	k7 := sys.Derive(x+h, next)

	errEst := matching.State{}.
		AddScaled(h*dc1, k1).AddScaled(h*dc3, k3).AddScaled(h*dc4, k4).
		AddScaled(h*dc5, k5).AddScaled(h*dc6, k6).AddScaled(h*dc7, k7)

	scaleMu := math.Abs(v.Mu) + math.Abs(h*k1.Mu) + 1e-10
	scaleTheta := math.Abs(v.Theta) + math.Abs(h*k1.Theta) + 1e-10
	errMax := math.Max(math.Abs(errEst.Mu)/scaleMu, math.Abs(errEst.Theta)/scaleTheta)

	errRatio := errMax / tol

	var hNew float64
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		hNew = h * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			hNew = h * scale
		} else {
			hNew = h * r.maxScale
		}
	}

	return next, hNew, nil
}
