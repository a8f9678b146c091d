package integrators

import (
	"fmt"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// ByName resolves a stepper from its configuration name. The empty string
// selects the Dormand-Prince default.
func ByName(name string) (matching.Stepper, error) {
	switch name {
	case "", "rk45":
		return NewRK45(), nil
	case "rk4":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	case "trapezoid":
		return NewTrapezoid(), nil
	}
	return nil, fmt.Errorf("integrators: unknown scheme %q", name)
}

// Names lists the selectable schemes.
func Names() []string {
	return []string{"rk45", "rk4", "euler", "trapezoid"}
}
