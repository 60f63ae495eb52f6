package engine

import (
	"time"

	"github.com/danieljhkim/binsweep/internal/planner"
)

// RunResult represents the outcome of a cleanup run.
type RunResult struct {
	// RunID identifies the run in logs and reports
	RunID string

	DryRun bool

	// Roots are the rooted paths that were discovered
	Roots []string

	// Units is the number of aggregated build units
	Units int

	// Queries counts issued property queries
	Queries int

	// Plan is the de-duplicated deletion plan
	Plan *planner.DeletionPlan

	// Summary sizes the plan
	Summary *planner.Summary

	// Skipped lists units that produced no candidates, with the reason
	Skipped []*UnitError

	// Warnings lists non-fatal problems that did not skip a unit, such as
	// an unreadable root or an output kind without a policy
	Warnings []error

	// Execution is nil for dry runs
	Execution *ExecutionResult

	Duration time.Duration
}

// Failed reports whether any deletion failed.
func (r *RunResult) Failed() bool {
	return r.Execution != nil && len(r.Execution.Failures) > 0
}

// ExecutionResult represents what the Executor did.
type ExecutionResult struct {
	// DeletedDirs are directories removed as a whole
	DeletedDirs []string

	// DeletedFiles are loose files and files removed in files-only mode
	DeletedFiles []string

	// Declined are paths the confirmer rejected
	Declined []string

	// Skipped are paths that vanished or were empty without the
	// empty-directory policy
	Skipped []string

	Failures []*DeletionError
}
