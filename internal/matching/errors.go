package matching

import (
	"errors"
	"fmt"
)

// Domain errors for the shooting solver and its collaborators.
var (
	// ErrUnboundSymbol indicates an expression references a symbol that is
	// neither the independent variable, a state component, nor a parameter.
	ErrUnboundSymbol = errors.New("matching: expression references an unbound symbol")

	// ErrUnknownFunction indicates an expression applies a function the
	// numeric compiler does not support.
	ErrUnknownFunction = errors.New("matching: expression applies an unsupported function")

	// ErrUnknownParam indicates a parameter name outside the model's set.
	ErrUnknownParam = errors.New("matching: unknown parameter")

	// ErrNonPositiveWage indicates the wage expression evaluated to a
	// non-positive value along the trajectory.
	ErrNonPositiveWage = errors.New("matching: wage must be positive")

	// ErrNonPositiveProfit indicates the profit expression evaluated to a
	// non-positive value along the trajectory.
	ErrNonPositiveProfit = errors.New("matching: profit must be positive")

	// ErrNonPositiveFirmSize indicates the firm-size state component became
	// non-positive mid-integration.
	ErrNonPositiveFirmSize = errors.New("matching: firm size must be positive")

	// ErrBracketCollapsed indicates the bisection bracket narrowed below
	// machine epsilon before both sides converged.
	ErrBracketCollapsed = errors.New("matching: bisection bracket collapsed")

	// ErrGuessTooLow indicates the caller's upper bound on the initial firm
	// size is below the value the equilibrium requires.
	ErrGuessTooLow = errors.New("matching: guess for firm size upper bound is too low")

	// ErrIntegratorFailure indicates the underlying stepper reported
	// non-success and the attempt was abandoned.
	ErrIntegratorFailure = errors.New("matching: integrator failed to advance")

	// ErrStepTooSmall indicates the adaptive step size collapsed below the
	// configured minimum.
	ErrStepTooSmall = errors.New("matching: adaptive step below minimum")

	// ErrStepBudget indicates the caller-supplied cap on total integration
	// steps was exhausted.
	ErrStepBudget = errors.New("matching: integration step budget exhausted")

	// ErrAssortativity indicates the integrated trajectory violates the
	// required assortativity condition.
	ErrAssortativity = errors.New("matching: solution violates the assortativity condition")

	// ErrInvalidState indicates NaN or Inf in the state vector.
	ErrInvalidState = errors.New("matching: invalid state (NaN or Inf detected)")

	// ErrOutOfRange indicates an interpolation query outside the fitted
	// knot sequence with the error extrapolation policy selected.
	ErrOutOfRange = errors.New("matching: query outside interpolation range")
)

// SolveError wraps an error with the position of the shooting attempt that
// produced it.
type SolveError struct {
	Step    int
	X       float64
	Guess   float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("step %d (x=%.6g, guess=%.6g): %v", e.Step, e.X, e.Guess, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
