// Package matching holds the shared types of the assortative-matching
// equilibrium solver: the two-component [State] of the equilibrium system,
// the [System] and stepper interfaces the integrators work against, the
// [Model] interface the shooting solver consumes, and the domain errors.
//
// A [Model] bundles an ordered parameter set, the two population
// descriptors, an assortativity designator and the symbolic expressions of
// the equilibrium system. Models carry a version counter; any mutation must
// bump it so that compiled numeric evaluators are invalidated rather than
// used stale.
package matching
