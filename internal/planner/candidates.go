package planner

import (
	"sort"
	"sync"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/pathx"
)

// CandidateSet collects deletion candidates from many build units. Paths that
// differ only by casing or a trailing separator share one entry. Safe for
// concurrent use.
type CandidateSet struct {
	caseSensitive bool

	mu    sync.Mutex
	dirs  map[string]*entry
	files map[string]*entry
}

type entry struct {
	path  string
	kinds map[buildunit.OutputKind]bool
	units map[string]*buildunit.Record
}

// NewCandidateSet creates an empty set.
func NewCandidateSet(caseSensitive bool) *CandidateSet {
	return &CandidateSet{
		caseSensitive: caseSensitive,
		dirs:          make(map[string]*entry),
		files:         make(map[string]*entry),
	}
}

// Add merges a directory candidate. It returns true when the directory was
// not in the set before.
func (s *CandidateSet) Add(c Candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, isNew := s.entryFor(s.dirs, c.Path)
	e.kinds[c.Kind] = true
	if c.Unit != nil {
		e.units[c.Unit.Key()] = c.Unit
	}
	return isNew
}

// AddFile merges a loose file (e.g. a stray package) contributed by unit.
func (s *CandidateSet) AddFile(path string, unit *buildunit.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, isNew := s.entryFor(s.files, path)
	if unit != nil {
		e.units[unit.Key()] = unit
	}
	return isNew
}

func (s *CandidateSet) entryFor(m map[string]*entry, path string) (*entry, bool) {
	key := pathx.Key(path, s.caseSensitive)
	if e, ok := m[key]; ok {
		return e, false
	}
	e := &entry{
		path:  path,
		kinds: make(map[buildunit.OutputKind]bool),
		units: make(map[string]*buildunit.Record),
	}
	m[key] = e
	return e, true
}

// Len returns the number of distinct directories.
func (s *CandidateSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirs)
}

// Plan freezes the set into a DeletionPlan with deterministic ordering.
func (s *CandidateSet) Plan() *DeletionPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := NewDeletionPlan()
	for _, e := range s.dirs {
		plan.Directories = append(plan.Directories, DirectoryCandidate{
			Path:  e.path,
			Kinds: e.sortedKinds(),
			Units: e.sortedUnits(),
		})
	}
	for _, e := range s.files {
		plan.Files = append(plan.Files, FileCandidate{
			Path:  e.path,
			Units: e.sortedUnits(),
		})
	}
	plan.sort()
	return plan
}

func (e *entry) sortedUnits() []*buildunit.Record {
	units := make([]*buildunit.Record, 0, len(e.units))
	for _, u := range e.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Key() < units[j].Key() })
	return units
}

func (e *entry) sortedKinds() []buildunit.OutputKind {
	kinds := make([]buildunit.OutputKind, 0, len(e.kinds))
	for k := range e.kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
