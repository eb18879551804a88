// Package engineerr declares the terminal error kinds the engine can surface
// for a solve, per the external error contract. Every kind is a sentinel so
// callers can use errors.Is/As across the normalizer, compiler, model
// builder, search driver, and publisher.
package engineerr

import "errors"

// Sentinel kinds. All are terminal for a solve: once surfaced, the solve
// that produced them stops, and the publisher emits a single error record.
var (
	// ErrBadRequest covers malformed or missing fields, an attribute
	// referenced by a constraint missing from some participant, a
	// non-positive weight, a target size <= 2, or max_time <= 0.
	ErrBadRequest = errors.New("bad request")

	// ErrNonNumericAttribute is returned when cluster_numeric references a
	// column that cannot be coerced to an integer.
	ErrNonNumericAttribute = errors.New("non-numeric attribute")

	// ErrEmptyDomain is returned when a cluster/different/diversify
	// attribute has no observed values in the roster.
	ErrEmptyDomain = errors.New("empty domain")

	// ErrUnsolvableSize is returned when the team-size constraints cannot
	// partition the roster.
	ErrUnsolvableSize = errors.New("unsolvable team size")

	// ErrCompileError is returned when the compiler cannot produce a
	// consistent model from an otherwise well-formed request.
	ErrCompileError = errors.New("compile error")

	// ErrCompileTimeout is returned when model construction (normalizer +
	// compiler + model builder) exceeds its own time budget, separate from
	// the solver's wall-clock deadline.
	ErrCompileTimeout = errors.New("compile timeout")

	// ErrInfeasible is returned when the solver proves no assignment
	// satisfies the hard constraints.
	ErrInfeasible = errors.New("infeasible")

	// ErrNoSolution is returned when no incumbent is found before the
	// deadline.
	ErrNoSolution = errors.New("no solution")

	// ErrCancelled is returned when the caller requests a stop before any
	// incumbent is found.
	ErrCancelled = errors.New("cancelled")
)

// Kind returns the machine-readable terminal-record kind for err, matching
// one of the sentinels above, or "" if err does not wrap a known kind.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	case errors.Is(err, ErrNonNumericAttribute):
		return "NonNumericAttribute"
	case errors.Is(err, ErrEmptyDomain):
		return "EmptyDomain"
	case errors.Is(err, ErrUnsolvableSize):
		return "UnsolvableSize"
	case errors.Is(err, ErrCompileTimeout):
		return "CompileTimeout"
	case errors.Is(err, ErrCompileError):
		return "CompileError"
	case errors.Is(err, ErrInfeasible):
		return "Infeasible"
	case errors.Is(err, ErrNoSolution):
		return "NoSolution"
	case errors.Is(err, ErrCancelled):
		return "Cancelled"
	default:
		return ""
	}
}
