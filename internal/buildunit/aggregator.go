package buildunit

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/danieljhkim/binsweep/internal/pathx"
)

// Aggregator merges observations into one Record per build unit. It is safe
// for concurrent use.
type Aggregator struct {
	caseSensitive bool

	mu      sync.RWMutex
	records map[string]*Record
}

// NewAggregator creates an empty Aggregator. caseSensitive controls how unit
// and container paths are compared.
func NewAggregator(caseSensitive bool) *Aggregator {
	return &Aggregator{
		caseSensitive: caseSensitive,
		records:       make(map[string]*Record),
	}
}

type rootedObservation struct {
	unitKey          string
	unitPath         string
	outputPath       string
	outputKind       OutputKind
	configuration    string
	targetFrameworks []string
	parentKey        string
	parentPath       string
	displayName      string
	projectKind      ProjectKind
}

// Record upserts the record for obs.BuildUnitPath. Paths are rooted before
// anything is stored; an unrootable unit or output path returns an error
// wrapping pathx.ErrInvalidPath and leaves the aggregator unchanged.
func (a *Aggregator) Record(obs Observation) error {
	ro, err := a.root(obs)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.records[ro.unitKey]; ok {
		a.records[ro.unitKey] = existing.merged(ro)
		return nil
	}

	rec := &Record{
		key:              ro.unitKey,
		path:             ro.unitPath,
		kind:             ro.projectKind,
		displayNames:     make(map[string]displayName, 1),
		configurations:   make(foldSet, 1),
		targetFrameworks: make(foldSet, len(ro.targetFrameworks)),
		parentContainers: make(foldSet, 1),
		processed:        new(atomic.Bool),
	}
	rec.apply(ro)
	a.records[ro.unitKey] = rec
	return nil
}

func (a *Aggregator) root(obs Observation) (rootedObservation, error) {
	var ro rootedObservation

	var parent string
	if obs.ParentContainerPath != "" {
		p, err := pathx.Abs(obs.ParentContainerPath)
		if err != nil {
			return ro, fmt.Errorf("parent container of %s: %w", obs.BuildUnitPath, err)
		}
		parent = p
	}

	var unit string
	var err error
	if parent != "" {
		unit, err = pathx.RootPath(obs.BuildUnitPath, parent)
	} else {
		unit, err = pathx.Abs(obs.BuildUnitPath)
	}
	if err != nil {
		return ro, fmt.Errorf("build unit: %w", err)
	}

	var out string
	if obs.OutputPath != "" {
		out, err = pathx.RootPath(obs.OutputPath, filepath.Dir(unit))
		if err != nil {
			return ro, fmt.Errorf("%s of %s: %w", obs.OutputKind, unit, err)
		}
	}

	kind := obs.ProjectKind
	if kind == ProjectUnknown {
		kind = KindOf(unit)
	}

	ro = rootedObservation{
		unitKey:          pathx.Key(unit, a.caseSensitive),
		unitPath:         unit,
		outputPath:       out,
		outputKind:       obs.OutputKind,
		configuration:    obs.ConfigurationName,
		targetFrameworks: obs.TargetFrameworks,
		parentPath:       parent,
		displayName:      obs.DisplayName,
		projectKind:      kind,
	}
	if parent != "" {
		ro.parentKey = pathx.Key(parent, a.caseSensitive)
	}
	return ro, nil
}

// Get returns the current snapshot of the record for unitPath.
func (a *Aggregator) Get(unitPath string) (*Record, bool) {
	rooted, err := pathx.Abs(unitPath)
	if err != nil {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.records[pathx.Key(rooted, a.caseSensitive)]
	return rec, ok
}

// Records returns snapshots of all records ordered by key.
func (a *Aggregator) Records() []*Record {
	a.mu.RLock()
	recs := make([]*Record, 0, len(a.records))
	for _, r := range a.records {
		recs = append(recs, r)
	}
	a.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].key < recs[j].key })
	return recs
}

// Len returns the number of build units seen.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}
