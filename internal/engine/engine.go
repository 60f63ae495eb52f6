// Package engine orchestrates a cleanup run.
//
// The engine sits between the CLI and the lower-level packages. A run
// discovers build units below each root, queries their output properties
// through a bounded worker pool, waits for every query to finish, gates and
// resolves each aggregated build unit into deletion candidates, and finally
// summarizes or executes the de-duplicated plan.
//
// Key components:
//   - Engine: owns the injected collaborators and runs the phases
//   - Executor: removes a plan under a confirmation policy
//   - observationsFromProperties: maps evaluated properties to observations
package engine

import (
	"context"
	"log/slog"

	"github.com/danieljhkim/binsweep/internal/clock"
	"github.com/danieljhkim/binsweep/internal/discover"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/gitx"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/metrics"
	"github.com/danieljhkim/binsweep/internal/msbuild"
)

// Querier evaluates project properties for one configuration.
type Querier interface {
	Query(ctx context.Context, projectPath, configuration, platform string) (msbuild.Properties, error)
}

// Discoverer finds the build units below a root.
type Discoverer interface {
	Discover(root string) (*discover.Result, error)
}

// Engine runs cleanups. It is the main API surface called by the CLI.
type Engine struct {
	fs         fsops.FS
	querier    Querier
	discoverer Discoverer
	gitRepo    gitx.Repo
	recorder   metrics.Recorder
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates a new Engine with the given dependencies. A nil recorder
// records nothing, a nil clock uses the wall clock and a nil logger
// discards output. gitRepo may be nil to skip repository root protection.
func New(
	fs fsops.FS,
	querier Querier,
	discoverer Discoverer,
	gitRepo gitx.Repo,
	recorder metrics.Recorder,
	clk clock.Clock,
	logger *slog.Logger,
) *Engine {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if clk == nil {
		clk = &clock.RealClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		fs:         fs,
		querier:    querier,
		discoverer: discoverer,
		gitRepo:    gitRepo,
		recorder:   recorder,
		clock:      clk,
		logger:     logger,
	}
}

// repositoryRoot returns the enclosing worktree root of path, or "".
func (e *Engine) repositoryRoot(path string) string {
	if e.gitRepo == nil {
		return ""
	}
	root, err := e.gitRepo.Discover(path)
	if err != nil {
		e.logger.Debug("No repository around root", logfields.Path(path), logfields.Error(err))
		return ""
	}
	return root
}

func verbose(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), logfields.LevelVerbose, msg, args...)
}
