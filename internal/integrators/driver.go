package integrators

import (
	"fmt"
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// AdaptiveStepper is implemented by steppers with an embedded error
// estimate. The driver prefers it over step doubling.
type AdaptiveStepper interface {
	StepAdaptive(sys matching.System, v matching.State, x, h, tol float64) (matching.State, float64, error)
}

// Driver walks a system from an initial condition toward a target abscissa,
// adapting the step size as it goes. It mirrors the set-initial-value /
// integrate / successful shape of classic ODE drivers: after a failed
// Advance the driver stays failed until SetInitialValue resets it.
type Driver struct {
	sys     matching.System
	stepper matching.Stepper

	v matching.State
	x float64
	h float64

	tol      float64
	initStep float64
	minStep  float64
	maxStep  float64
	budget   int

	steps int
	err   error
}

type Option func(*Driver)

func WithTolerance(tol float64) Option {
	return func(d *Driver) { d.tol = tol }
}

func WithInitialStep(h float64) Option {
	return func(d *Driver) { d.initStep = h }
}

func WithMinStep(h float64) Option {
	return func(d *Driver) { d.minStep = h }
}

func WithMaxStep(h float64) Option {
	return func(d *Driver) { d.maxStep = h }
}

// WithStepBudget caps the total number of accepted steps across all Advance
// calls since the last SetInitialValue. Zero means no cap.
func WithStepBudget(n int) Option {
	return func(d *Driver) { d.budget = n }
}

func NewDriver(sys matching.System, stepper matching.Stepper, opts ...Option) *Driver {
	d := &Driver{
		sys:      sys,
		stepper:  stepper,
		tol:      1e-9,
		initStep: 1e-3,
		minStep:  1e-12,
		maxStep:  math.Inf(1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) SetInitialValue(v matching.State, x float64) {
	d.v = v
	d.x = x
	d.h = d.initStep
	d.steps = 0
	d.err = nil
}

func (d *Driver) X() float64        { return d.x }
func (d *Driver) V() matching.State { return d.v }
func (d *Driver) Steps() int        { return d.steps }
func (d *Driver) Err() error        { return d.err }
func (d *Driver) Successful() bool  { return d.err == nil }

// Advance integrates from the current position to target. The direction is
// taken from the sign of target - X(); the final step is clamped so the
// driver lands on target exactly.
func (d *Driver) Advance(target float64) error {
	if d.err != nil {
		return d.err
	}

	dir := 1.0
	if target < d.x {
		dir = -1.0
	}
	h := dir * math.Min(math.Abs(d.h), d.maxStep)

	for dir*(target-d.x) > 1e-14*(1+math.Abs(target)) {
		if d.budget > 0 && d.steps >= d.budget {
			return d.fail(fmt.Errorf("driver: %w after %d steps", matching.ErrStepBudget, d.steps))
		}

		remaining := target - d.x
		if math.Abs(h) > math.Abs(remaining) {
			h = remaining
		}

		next, used, hNext, err := d.step(h)
		if err != nil {
			return d.fail(err)
		}
		if !next.IsValid() {
			return d.fail(fmt.Errorf("driver: %w at x=%g", matching.ErrInvalidState, d.x+used))
		}

		d.v = next
		d.x += used
		d.steps++

		h = dir * math.Min(math.Abs(hNext), d.maxStep)
		d.h = h
	}
	d.x = target
	return nil
}

// step takes one accepted step of at most size h, retrying with smaller
// sizes until the local error estimate falls under tolerance. It returns the
// new state, the size actually used and a suggestion for the next step.
func (d *Driver) step(h float64) (matching.State, float64, float64, error) {
	if ad, ok := d.stepper.(AdaptiveStepper); ok {
		for {
			next, hNext, err := ad.StepAdaptive(d.sys, d.v, d.x, h, d.tol)
			if err != nil {
				return matching.State{}, 0, 0, fmt.Errorf("driver: %w: %v", matching.ErrIntegratorFailure, err)
			}
			// A suggestion no smaller than the attempt means it was accepted.
			if math.Abs(hNext) >= math.Abs(h) || math.Abs(h) <= d.minStep {
				return next, h, hNext, nil
			}
			h = hNext
		}
	}

	for {
		full, err := d.rawStep(d.v, d.x, h)
		if err != nil {
			return matching.State{}, 0, 0, err
		}
		half, err := d.rawStep(d.v, d.x, h/2)
		if err != nil {
			return matching.State{}, 0, 0, err
		}
		two, err := d.rawStep(half, d.x+h/2, h/2)
		if err != nil {
			return matching.State{}, 0, 0, err
		}

		localErr := full.Sub(two).Norm()
		if localErr > d.tol {
			if math.Abs(h)/2 < d.minStep {
				return matching.State{}, 0, 0, fmt.Errorf("driver: %w at x=%g (h=%g)", matching.ErrStepTooSmall, d.x, h)
			}
			h /= 2
			continue
		}

		hNext := h
		if localErr < d.tol/10 {
			hNext = h * 2
		}
		return two, h, hNext, nil
	}
}

func (d *Driver) rawStep(v matching.State, x, h float64) (matching.State, error) {
	if imp, ok := d.stepper.(matching.ImplicitStepper); ok {
		if diff, ok := d.sys.(matching.Differentiable); ok {
			return imp.StepImplicit(diff, v, x, h)
		}
	}
	return d.stepper.Step(d.sys, v, x, h), nil
}

func (d *Driver) fail(err error) error {
	d.err = err
	return err
}
