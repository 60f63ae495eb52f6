package planner

import (
	"fmt"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/pathx"
)

// Violation describes one output that would destroy a protected path.
type Violation struct {
	// Output is the rooted output directory that was vetoed.
	Output string

	// Protected is the project file or parent container that lies inside it.
	Protected string

	// Reason is a human-readable explanation.
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Output, v.Reason)
}

// SafetyGate vetoes a build unit when deleting any of its outputs would
// remove a project file, a solution directory or a scanning root.
// The decision is all-or-nothing per record.
type SafetyGate struct{}

// NewSafetyGate creates a new SafetyGate.
func NewSafetyGate() *SafetyGate {
	return &SafetyGate{}
}

// Check returns every violation found for rec. An empty result means the
// record is safe to resolve.
func (g *SafetyGate) Check(rec *buildunit.Record) []Violation {
	protected := g.protectedPaths(rec)

	var violations []Violation
	for _, out := range rec.Outputs() {
		for _, p := range protected {
			if pathx.IsNestedStrictlyBelow(p.path, out.Path) {
				violations = append(violations, Violation{
					Output:    out.Path,
					Protected: p.path,
					Reason:    fmt.Sprintf("%s %s lies below %s output", p.what, p.path, out.Kind),
				})
				continue
			}
			// Removing a container directory itself is as destructive as
			// removing something beneath it.
			if p.what == "container" && pathx.Equal(p.path, out.Path, false) {
				violations = append(violations, Violation{
					Output:    out.Path,
					Protected: p.path,
					Reason:    fmt.Sprintf("%s output is the container %s", out.Kind, p.path),
				})
			}
		}
	}
	return violations
}

// IsSafeToProcess reports whether rec passes the gate.
func (g *SafetyGate) IsSafeToProcess(rec *buildunit.Record) bool {
	return len(g.Check(rec)) == 0
}

type protectedPath struct {
	path string
	what string
}

func (g *SafetyGate) protectedPaths(rec *buildunit.Record) []protectedPath {
	var out []protectedPath
	for _, p := range rec.UnitPaths() {
		out = append(out, protectedPath{path: p, what: "project"})
	}
	for _, p := range rec.ParentContainers() {
		out = append(out, protectedPath{path: p, what: "container"})
	}
	return out
}
