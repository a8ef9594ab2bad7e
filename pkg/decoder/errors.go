package decoder

import "fmt"

// InvariantError marks the "invariant violation" error class of spec §7:
// bugs such as a successor landing outside [0, L+1], sentence-end closure
// reached with incomplete coverage, or no surviving terminal hypothesis.
// These abort the decode with a diagnostic; they are never surfaced to a
// client as a partial translation. A recombination-key hit between
// non-equivalent hypotheses is not one of them: stack.Level.Add keeps both
// as separate hypotheses.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("decoder invariant violation: %s", e.Msg)
}

// ResourceError marks spec §7's "resource exhaustion" class, distinct from
// cancellation: decoding was aborted because it grew past the fixed
// safety ceiling on hypothesis count (maxArenaHypotheses), the practical proxy this package uses
// for "ran out of memory" (true OOM in Go is unrecoverable and would crash
// the process before any error could be returned).
type ResourceError struct {
	Msg string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("decoder resource exhaustion: %s", e.Msg)
}

// ErrLatticeUnsupported is returned when de_is_gen_lattice is set: lattice
// output is referenced by the configuration surface but not implemented by
// this core (spec §9 open question — left unimplemented, not silently
// ignored).
var ErrLatticeUnsupported = &InvariantError{Msg: "de_is_gen_lattice is not supported by this decoder"}
