package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final status of a target run.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for vendoring runs.
type Recorder interface {
	ObserveStageDuration(target, stage string, d time.Duration)
	IncStageResult(target, stage string, result ResultLabel)
	ObserveRunDuration(target string, d time.Duration)
	IncRunOutcome(target string, outcome OutcomeLabel)
	ObserveFetchDuration(target string, d time.Duration, success bool)
	SetVendoredFiles(target, kind string, n int) // kind: files|shims
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, string, ResultLabel)        {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)          {}
func (NoopRecorder) IncRunOutcome(string, OutcomeLabel)                {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool)  {}
func (NoopRecorder) SetVendoredFiles(string, string, int)              {}
