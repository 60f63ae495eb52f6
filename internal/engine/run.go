package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/clock"
	"github.com/danieljhkim/binsweep/internal/discover"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/metrics"
	"github.com/danieljhkim/binsweep/internal/pathx"
	"github.com/danieljhkim/binsweep/internal/planner"
)

// job is one (project, configuration) pair to query.
type job struct {
	project  discover.Project
	config   discover.Config
	repoRoot string
}

// runState is shared by the query workers.
type runState struct {
	caseSensitive bool
	agg           *buildunit.Aggregator
	guard         *buildunit.QueryGuard

	mu       sync.Mutex
	queries  int
	failed   map[string]*UnitError
	packages map[string][]string
	warnings []error
}

func newRunState(caseSensitive bool) *runState {
	return &runState{
		caseSensitive: caseSensitive,
		agg:           buildunit.NewAggregator(caseSensitive),
		guard:         buildunit.NewQueryGuard(caseSensitive),
		failed:        make(map[string]*UnitError),
		packages:      make(map[string][]string),
	}
}

func (s *runState) unitKey(path string) string {
	if abs, err := pathx.Abs(path); err == nil {
		path = abs
	}
	return pathx.Key(path, s.caseSensitive)
}

// fail marks the unit as unusable. The first error is kept.
func (s *runState) fail(unit string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.unitKey(unit)
	if _, ok := s.failed[key]; !ok {
		s.failed[key] = &UnitError{Unit: unit, Err: err}
	}
}

func (s *runState) warn(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, err)
}

func (s *runState) countQuery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
}

func (s *runState) addPackages(unit string, files []string) {
	if len(files) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.unitKey(unit)
	s.packages[key] = append(s.packages[key], files...)
}

// Run plans a cleanup of every root and executes it unless req.DryRun.
//
// Failures of single projects or deletions are logged and reported in the
// result. An error is only returned for an invalid request, a missing
// backend, or when no root could be discovered at all.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if e.querier == nil {
		return nil, ErrNoBackend
	}
	if len(req.Roots) == 0 {
		return nil, fmt.Errorf("%w: no root given", ErrValidation)
	}
	if req.Parallel < 0 {
		return nil, fmt.Errorf("%w: parallel must not be negative", ErrValidation)
	}

	runID := uuid.NewString()
	logger := e.logger.With(logfields.RunID(runID))
	sw := clock.Start(e.clock)

	result := &RunResult{RunID: runID, DryRun: req.DryRun}
	st := newRunState(req.CaseSensitive)

	jobs, err := e.collectJobs(req.Roots, result, logger)
	if err != nil {
		return nil, err
	}

	e.queryAll(ctx, jobs, req, st, logger)

	// Every configuration of every unit is merged past this point.
	result.Queries = st.queries
	result.Warnings = append(result.Warnings, st.warnings...)
	result.Units = st.agg.Len()

	set := planner.NewCandidateSet(req.CaseSensitive)
	policy := req.Policy
	policy.CaseSensitive = req.CaseSensitive
	e.resolveAll(st, set, policy, result, logger)

	result.Plan = set.Plan()
	result.Summary = planner.Summarize(e.fs, result.Plan, req.EnumerationDepth)
	e.recorder.SetPlanTotals(len(result.Summary.Directories), result.Summary.TotalFiles, result.Summary.TotalBytes)
	for _, dir := range result.Summary.Empty {
		verbose(logger, "Nothing below directory", logfields.Path(dir))
	}
	logger.Info("Deletion plan ready",
		logfields.Count(len(result.Plan.Directories)),
		logfields.Files(result.Summary.TotalFiles),
		logfields.Bytes(result.Summary.TotalBytes))

	if !req.DryRun {
		opts := req.Execute
		opts.CaseSensitive = req.CaseSensitive
		x := NewExecutor(e.fs, opts, req.Confirmer, e.recorder, logger)
		result.Execution = x.Execute(result.Plan)
	}

	result.Duration = sw.Elapsed()
	e.recorder.ObserveRunDuration(result.Duration)
	logger.Info("Run finished", logfields.DryRun(req.DryRun), logfields.DurationMS(sw.Millis()))
	return result, nil
}

// collectJobs discovers every root. A root that cannot be discovered is a
// warning unless it is the only kind of root there is.
func (e *Engine) collectJobs(roots []string, result *RunResult, logger *slog.Logger) ([]job, error) {
	var (
		jobs     []job
		rootErrs []error
	)
	for _, root := range roots {
		res, err := e.discoverer.Discover(root)
		if err != nil {
			logger.Error("Failed to discover build units", logfields.Path(root), logfields.Error(err))
			rootErrs = append(rootErrs, fmt.Errorf("root %s: %w", root, err))
			continue
		}
		result.Roots = append(result.Roots, res.Root)

		repoRoot := e.repositoryRoot(res.Root)
		logger.Info("Discovered build units",
			logfields.Path(res.Root),
			logfields.Count(len(res.Projects)),
			slog.Int("solutions", len(res.Solutions)))

		for _, p := range res.Projects {
			for _, cfg := range p.Configs {
				jobs = append(jobs, job{project: p, config: cfg, repoRoot: repoRoot})
			}
		}
	}
	if len(result.Roots) == 0 {
		return nil, errors.Join(rootErrs...)
	}
	result.Warnings = append(result.Warnings, rootErrs...)
	return jobs, nil
}

// queryAll runs every job and returns when all of them have finished.
// parallel <= 0 runs the jobs in order on the calling goroutine.
func (e *Engine) queryAll(ctx context.Context, jobs []job, req *RunRequest, st *runState, logger *slog.Logger) {
	if req.Parallel <= 0 || len(jobs) < 2 {
		for _, j := range jobs {
			e.queryJob(ctx, j, req.Clean, st, logger)
		}
		return
	}

	workers := min(req.Parallel, len(jobs))
	logger.Debug("Starting query workers", logfields.Workers(workers), logfields.Count(len(jobs)))

	queue := make(chan job)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				e.queryJob(ctx, j, req.Clean, st, logger)
			}
		}()
	}
	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()
}

// queryJob evaluates one project configuration and records its outputs.
// Errors are confined to the unit.
func (e *Engine) queryJob(ctx context.Context, j job, clean Clean, st *runState, logger *slog.Logger) {
	p := j.project
	logger = logger.With(
		logfields.Unit(p.Path),
		logfields.Configuration(j.config.Configuration),
		logfields.Platform(j.config.Platform))

	// Every discovering container joins the record, including those whose
	// configuration was already claimed by another root or solution.
	if p.Container != "" {
		e.record(st, containerObservation(p, p.Container), logger)
	}
	if j.repoRoot != "" {
		e.record(st, containerObservation(p, j.repoRoot), logger)
	}

	if !st.guard.TryClaim(p.Path, j.config.Configuration, j.config.Platform) {
		verbose(logger, "Configuration already queried")
		return
	}

	if err := ctx.Err(); err != nil {
		st.fail(p.Path, fmt.Errorf("%w: %w", ErrPropertyQuery, err))
		return
	}

	sw := clock.Start(e.clock)
	props, err := e.querier.Query(ctx, p.Path, j.config.Configuration, j.config.Platform)
	e.recorder.ObserveQueryDuration(sw.Elapsed(), err == nil)
	st.countQuery()
	if err != nil {
		logger.Error("Failed to query project properties; check that the project restores and evaluates",
			logfields.Error(err))
		st.fail(p.Path, fmt.Errorf("%w: %w", ErrPropertyQuery, err))
		return
	}
	verbose(logger, "Queried project properties",
		logfields.Project(props.ProjectName()),
		logfields.DurationMS(sw.Millis()))

	for _, obs := range observationsFromProperties(p, j.config, props, clean) {
		e.record(st, obs, logger)
	}

	if clean.Packages {
		files, err := packageFiles(e.fs, p.Path, props)
		if err != nil {
			logger.Warn("Failed to list packages", logfields.Error(err))
		}
		st.addPackages(p.Path, files)
	}
}

// record feeds obs to the aggregator. An unrootable path drops only that
// observation.
func (e *Engine) record(st *runState, obs buildunit.Observation, logger *slog.Logger) {
	if err := st.agg.Record(obs); err != nil {
		logger.Warn("Dropping observation with invalid path",
			logfields.Output(obs.OutputPath),
			logfields.OutputKind(obs.OutputKind.String()),
			logfields.Error(err))
		e.recorder.IncUnitOutcome(metrics.UnitInvalidPath)
		st.warn(&UnitError{Unit: obs.BuildUnitPath, Err: err})
	}
}

// resolveAll gates and resolves every aggregated unit into set.
func (e *Engine) resolveAll(st *runState, set *planner.CandidateSet, policy planner.Policy, result *RunResult, logger *slog.Logger) {
	gate := planner.NewSafetyGate()
	resolver := planner.NewResolver(e.fs, policy, logger)

	// Units whose every query failed have no record.
	failed := make(map[string]*UnitError, len(st.failed))
	for key, ue := range st.failed {
		failed[key] = ue
	}

	for _, rec := range st.agg.Records() {
		ulog := logger.With(logfields.Unit(rec.Path()), logfields.Project(rec.DisplayName()))

		if ue, ok := failed[rec.Key()]; ok {
			delete(failed, rec.Key())
			result.Skipped = append(result.Skipped, ue)
			e.recorder.IncUnitOutcome(metrics.UnitQueryFailed)
			continue
		}

		if violations := gate.Check(rec); len(violations) > 0 {
			for _, v := range violations {
				ulog.Warn("Skipping project: output would delete a protected path",
					logfields.Output(v.Output),
					logfields.Path(v.Protected),
					slog.String("reason", v.Reason))
			}
			result.Skipped = append(result.Skipped, &UnitError{
				Unit: rec.Path(),
				Err:  fmt.Errorf("%w: %s", ErrUnsafeDeletion, violations[0]),
			})
			e.recorder.IncUnitOutcome(metrics.UnitUnsafe)
			continue
		}

		candidates, err := resolver.Resolve(rec)
		if err != nil {
			if errors.Is(err, planner.ErrNotImplemented) {
				ulog.Warn("Output kind has no cleanup policy", logfields.Error(err))
				e.recorder.IncUnitOutcome(metrics.UnitNotImplemented)
			} else {
				ulog.Warn("Failed to resolve outputs", logfields.Error(err))
			}
			result.Warnings = append(result.Warnings, &UnitError{Unit: rec.Path(), Err: err})
		}

		for _, c := range candidates {
			set.Add(c)
		}
		for _, f := range st.packages[rec.Key()] {
			set.AddFile(f, rec)
		}
		e.recorder.IncUnitOutcome(metrics.UnitResolved)
	}

	rest := make([]*UnitError, 0, len(failed))
	for _, ue := range failed {
		rest = append(rest, ue)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Unit < rest[j].Unit })
	for _, ue := range rest {
		result.Skipped = append(result.Skipped, ue)
		e.recorder.IncUnitOutcome(metrics.UnitQueryFailed)
	}
}
