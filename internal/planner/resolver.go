package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/pathx"
)

var (
	// ErrNotImplemented is returned for output kinds that have no cleanup
	// policy yet.
	ErrNotImplemented = errors.New("no cleanup policy defined")

	// ErrAlreadyProcessed is returned when a record was resolved before.
	ErrAlreadyProcessed = errors.New("build unit already processed")
)

// Policy selects the structural heuristics applied to primary output
// directories.
type Policy struct {
	// ValidateStructure narrows bin/<Configuration>/<tfm> outputs to the
	// recognized framework folders of the configuration directory.
	ValidateStructure bool

	// NonCurrentOnly keeps framework folders the unit still targets.
	NonCurrentOnly bool

	// CaseSensitive treats outputs differing only in case as distinct
	CaseSensitive bool
}

// Candidate is one directory selected for deletion.
type Candidate struct {
	Path string
	Kind buildunit.OutputKind
	Unit *buildunit.Record
}

type strategyKey struct {
	native bool
	kind   buildunit.OutputKind
}

type strategy func(r *Resolver, rec *buildunit.Record, out buildunit.Output) ([]string, error)

// strategies maps (project system, output kind) to a resolution policy.
// Native projects have no framework folders, so everything is direct.
var strategies = map[strategyKey]strategy{
	{native: true, kind: buildunit.OutputOut}:               resolveDirect,
	{native: true, kind: buildunit.OutputBaseOutput}:        resolveDirect,
	{native: true, kind: buildunit.OutputBaseIntermediate}:  resolveDirect,
	{native: false, kind: buildunit.OutputOut}:              resolveOutDir,
	{native: false, kind: buildunit.OutputBaseOutput}:       resolveUndefined,
	{native: false, kind: buildunit.OutputBaseIntermediate}: resolveDirect,
}

// Resolver turns the outputs of a gated record into concrete directories.
type Resolver struct {
	fs     fsops.FS
	policy Policy
	logger *slog.Logger
}

// NewResolver creates a new Resolver. A nil logger discards output.
func NewResolver(fs fsops.FS, policy Policy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fs: fs, policy: policy, logger: logger}
}

// Resolve returns the deletion candidates for rec and marks it processed.
//
// Every distinct output is resolved even if another one fails; the failures
// are joined into the returned error. The record is marked processed exactly
// once; a second call returns ErrAlreadyProcessed and no candidates.
func (r *Resolver) Resolve(rec *buildunit.Record) ([]Candidate, error) {
	if rec.Processed() {
		return nil, ErrAlreadyProcessed
	}

	var (
		candidates []Candidate
		errs       []error
		seen       = make(map[string]bool)
	)
	for _, out := range rec.Outputs() {
		key := fmt.Sprintf("%d#%s", out.Kind, pathx.Key(out.Path, r.policy.CaseSensitive))
		if seen[key] {
			continue
		}
		seen[key] = true

		r.verbose("Resolving output",
			logfields.Unit(rec.Path()), logfields.Output(out.Path), logfields.OutputKind(out.Kind.String()))

		fn, ok := strategies[strategyKey{native: rec.Kind().Native(), kind: out.Kind}]
		if !ok {
			fn = resolveUndefined
		}
		paths, err := fn(r, rec, out)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", out.Kind, out.Path, err))
			continue
		}
		for _, p := range paths {
			candidates = append(candidates, Candidate{Path: p, Kind: out.Kind, Unit: rec})
			r.verbose("Directory marked for deletion",
				logfields.Path(p), logfields.Unit(rec.Path()))
		}
	}

	if !rec.MarkProcessed() {
		return nil, ErrAlreadyProcessed
	}
	return candidates, errors.Join(errs...)
}

func (r *Resolver) verbose(msg string, args ...any) {
	r.logger.Log(context.Background(), logfields.LevelVerbose, msg, args...)
}

// resolveDirect selects the output itself when it exists.
func resolveDirect(r *Resolver, _ *buildunit.Record, out buildunit.Output) ([]string, error) {
	exists, err := r.fs.DirExists(out.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		r.verbose("Output does not exist", logfields.Path(out.Path))
		return nil, nil
	}
	return []string{out.Path}, nil
}

func resolveUndefined(_ *Resolver, _ *buildunit.Record, out buildunit.Output) ([]string, error) {
	return nil, fmt.Errorf("%w for %s", ErrNotImplemented, out.Kind)
}

// resolveOutDir applies the bin/<Configuration>/<tfm> heuristic. When the
// leaf is a framework folder below a known configuration folder, only the
// framework folders of that configuration directory are selected, never the
// configuration directory or anything unrecognized next to them.
func resolveOutDir(r *Resolver, rec *buildunit.Record, out buildunit.Output) ([]string, error) {
	if !r.policy.ValidateStructure {
		return resolveDirect(r, rec, out)
	}

	leaf := filepath.Base(out.Path)
	cfgDir := filepath.Dir(out.Path)
	if !IsTFM(leaf) || !rec.HasConfiguration(filepath.Base(cfgDir)) {
		r.logger.Debug("Output is not a configuration/framework folder, taking it as is", logfields.Path(out.Path))
		return resolveDirect(r, rec, out)
	}

	exists, err := r.fs.DirExists(cfgDir)
	if err != nil {
		return nil, err
	}
	if !exists {
		r.logger.Debug("Configuration directory does not exist", logfields.Path(cfgDir))
		return nil, nil
	}

	entries, err := r.fs.ReadDir(cfgDir)
	if err != nil {
		return nil, err
	}

	polluted := false
	var selected []string
	for _, e := range entries {
		if !e.IsDir() {
			polluted = true
			continue
		}
		name := e.Name()
		if !IsTFM(name) {
			polluted = true
			continue
		}
		if r.policy.NonCurrentOnly && rec.HasTargetFramework(name) {
			r.verbose("Keeping current framework folder",
				logfields.Path(filepath.Join(cfgDir, name)))
			continue
		}
		selected = append(selected, filepath.Join(cfgDir, name))
	}

	if polluted {
		r.logger.Debug("Configuration directory holds unrecognized content, selecting framework folders only",
			logfields.Path(cfgDir))
	}
	return selected, nil
}
