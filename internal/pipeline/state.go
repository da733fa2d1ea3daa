package pipeline

import "time"

// State is a pipeline state.
type State string

const (
	StatePreflight    State = "PREFLIGHT"
	StateCleaned      State = "CLEANED"
	StateFetched      State = "FETCHED"
	StateClassified   State = "CLASSIFIED"
	StateMaterialized State = "MATERIALIZED"
	StateManifested   State = "MANIFESTED"
	StateShimmed      State = "SHIMMED"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// stageName is the metrics and log label of the step that reaches s.
func (s State) stageName() string {
	switch s {
	case StatePreflight:
		return "preflight"
	case StateCleaned:
		return "clean"
	case StateFetched:
		return "fetch"
	case StateClassified:
		return "classify"
	case StateMaterialized:
		return "materialize"
	case StateManifested:
		return "manifest"
	case StateShimmed:
		return "shim"
	case StateDone:
		return "commit"
	default:
		return "unknown"
	}
}

// Result describes one target run.
type Result struct {
	Target      string
	RunID       string
	Revision    string // commit checked out, as reported by the checkout HEAD
	Destination string
	ShimRoot    string
	Files       int
	Shims       int
	States      []State
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// Final returns the last state reached.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Succeeded reports whether the run reached DONE.
func (r *Result) Succeeded() bool { return r.Final() == StateDone }
