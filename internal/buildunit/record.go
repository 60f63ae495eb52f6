package buildunit

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Record is the aggregated view of one build unit. A *Record handed out by
// the Aggregator is an immutable snapshot; merging produces a new snapshot.
// Only the processed flag is shared between snapshots of the same unit.
type Record struct {
	key              string
	path             string
	kind             ProjectKind
	outputs          []Output
	displayNames     map[string]displayName
	configurations   foldSet
	targetFrameworks foldSet
	parentContainers foldSet
	processed        *atomic.Bool
}

type displayName struct {
	path string
	name string
}

// Key returns the canonical comparison key of the unit.
func (r *Record) Key() string { return r.key }

// Path returns the rooted project file path as first observed.
func (r *Record) Path() string { return r.path }

// Kind returns the project kind.
func (r *Record) Kind() ProjectKind { return r.kind }

// Outputs returns all observed outputs. Duplicates are preserved.
func (r *Record) Outputs() []Output {
	out := make([]Output, len(r.outputs))
	copy(out, r.outputs)
	return out
}

// UnitPaths returns every build-unit path associated with the record, sorted.
// Normally this is the single project path.
func (r *Record) UnitPaths() []string {
	paths := make([]string, 0, len(r.displayNames))
	for _, dn := range r.displayNames {
		paths = append(paths, dn.path)
	}
	sort.Strings(paths)
	return paths
}

// DisplayName returns the friendly name for the record's own unit path, or
// the file name when none was reported.
func (r *Record) DisplayName() string {
	if dn, ok := r.displayNames[r.key]; ok && dn.name != "" {
		return dn.name
	}
	keys := make([]string, 0, len(r.displayNames))
	for k := range r.displayNames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if name := r.displayNames[k].name; name != "" {
			return name
		}
	}
	return baseName(r.path)
}

// DisplayNames returns the unit path to display name mapping.
func (r *Record) DisplayNames() map[string]string {
	m := make(map[string]string, len(r.displayNames))
	for _, dn := range r.displayNames {
		m[dn.path] = dn.name
	}
	return m
}

// Configurations returns the configuration names seen, sorted.
func (r *Record) Configurations() []string { return r.configurations.values() }

// HasConfiguration reports whether name was seen, ignoring case.
func (r *Record) HasConfiguration(name string) bool { return r.configurations.has(name) }

// TargetFrameworks returns the target framework identifiers seen, sorted.
func (r *Record) TargetFrameworks() []string { return r.targetFrameworks.values() }

// HasTargetFramework reports whether tfm is currently targeted, ignoring case.
func (r *Record) HasTargetFramework(tfm string) bool { return r.targetFrameworks.has(tfm) }

// ParentContainers returns the rooted paths that discovered this unit, sorted.
func (r *Record) ParentContainers() []string { return r.parentContainers.values() }

// Processed reports whether candidates were already resolved for the unit.
func (r *Record) Processed() bool { return r.processed.Load() }

// MarkProcessed flips the processed flag. It returns true only for the call
// that performed the false to true transition.
func (r *Record) MarkProcessed() bool { return r.processed.CompareAndSwap(false, true) }

func (r *Record) String() string { return r.path }

// merged returns a copy of r with obs applied. r is left untouched.
func (r *Record) merged(obs rootedObservation) *Record {
	next := &Record{
		key:              r.key,
		path:             r.path,
		kind:             r.kind,
		outputs:          make([]Output, len(r.outputs), len(r.outputs)+1),
		displayNames:     make(map[string]displayName, len(r.displayNames)+1),
		configurations:   r.configurations.clone(),
		targetFrameworks: r.targetFrameworks.clone(),
		parentContainers: r.parentContainers.clone(),
		processed:        r.processed,
	}
	copy(next.outputs, r.outputs)
	for k, v := range r.displayNames {
		next.displayNames[k] = v
	}
	next.apply(obs)
	return next
}

func (r *Record) apply(obs rootedObservation) {
	if obs.outputPath != "" {
		r.outputs = append(r.outputs, Output{Path: obs.outputPath, Kind: obs.outputKind})
	}
	if existing, ok := r.displayNames[obs.unitKey]; !ok || existing.name == "" {
		r.displayNames[obs.unitKey] = displayName{path: obs.unitPath, name: obs.displayName}
	}
	if obs.configuration != "" {
		r.configurations.add(strings.ToLower(obs.configuration), obs.configuration)
	}
	for _, tfm := range obs.targetFrameworks {
		if tfm = strings.TrimSpace(tfm); tfm != "" {
			r.targetFrameworks.add(strings.ToLower(tfm), tfm)
		}
	}
	if obs.parentPath != "" {
		r.parentContainers.add(obs.parentKey, obs.parentPath)
	}
	if r.kind == ProjectUnknown {
		r.kind = obs.projectKind
	}
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// foldSet is a set keyed by a normalized key that remembers the first
// spelling it saw.
type foldSet map[string]string

func (s foldSet) add(key, value string) {
	if _, ok := s[key]; !ok {
		s[key] = value
	}
}

func (s foldSet) has(value string) bool {
	_, ok := s[strings.ToLower(value)]
	return ok
}

func (s foldSet) clone() foldSet {
	c := make(foldSet, len(s)+1)
	for k, v := range s {
		c[k] = v
	}
	return c
}

func (s foldSet) values() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
