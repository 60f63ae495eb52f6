// Package metrics records run outcomes. Components receive a Recorder; the
// default NoopRecorder does nothing, the PrometheusRecorder collects into a
// private registry that can be exported as a node-exporter textfile.
package metrics

import "time"

// UnitOutcome enumerates what happened to a build unit.
type UnitOutcome string

const (
	UnitResolved       UnitOutcome = "resolved"
	UnitUnsafe         UnitOutcome = "unsafe"
	UnitQueryFailed    UnitOutcome = "query_failed"
	UnitInvalidPath    UnitOutcome = "invalid_path"
	UnitNotImplemented UnitOutcome = "not_implemented"
)

// ResultLabel enumerates deletion results.
type ResultLabel string

const (
	ResultDeleted  ResultLabel = "deleted"
	ResultFailed   ResultLabel = "failed"
	ResultDeclined ResultLabel = "declined"
	ResultSkipped  ResultLabel = "skipped"
)

// Target enumerates what a deletion acted on.
type Target string

const (
	TargetDirectory Target = "directory"
	TargetFile      Target = "file"
)

// Recorder defines observability hooks for a run. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveQueryDuration(d time.Duration, success bool)
	IncUnitOutcome(outcome UnitOutcome)
	SetPlanTotals(directories, files int, bytes int64)
	IncDeletion(target Target, result ResultLabel)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveQueryDuration(time.Duration, bool) {}
func (NoopRecorder) IncUnitOutcome(UnitOutcome)               {}
func (NoopRecorder) SetPlanTotals(int, int, int64)            {}
func (NoopRecorder) IncDeletion(Target, ResultLabel)          {}
func (NoopRecorder) ObserveRunDuration(time.Duration)         {}
