package engine

import (
	"fmt"
	"strings"
)

// ConfirmLevel is the granularity at which destructive actions are confirmed.
type ConfirmLevel int

const (
	// ConfirmDir asks per directory and per loose file
	ConfirmDir ConfirmLevel = iota

	// ConfirmProj asks once per build unit
	ConfirmProj

	// ConfirmSln asks once per parent container
	ConfirmSln

	// ConfirmForce never asks
	ConfirmForce
)

var confirmLevelNames = map[ConfirmLevel]string{
	ConfirmDir:   "dir",
	ConfirmProj:  "proj",
	ConfirmSln:   "sln",
	ConfirmForce: "force",
}

func (l ConfirmLevel) String() string {
	if s, ok := confirmLevelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("ConfirmLevel(%d)", int(l))
}

// ParseConfirmLevel parses dir, proj, sln or force (case-insensitive).
func ParseConfirmLevel(s string) (ConfirmLevel, error) {
	for l, name := range confirmLevelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: invalid confirm level %q (valid: force, sln, proj, dir)", ErrValidation, s)
}

// ConfirmKind says what a confirmation covers.
type ConfirmKind int

const (
	// ConfirmDirectory covers removing a directory tree
	ConfirmDirectory ConfirmKind = iota

	// ConfirmFilesUnderDirectory covers removing the files below a directory
	ConfirmFilesUnderDirectory

	// ConfirmSingleFile covers removing one loose file
	ConfirmSingleFile

	// ConfirmBuildUnit covers every directory a build unit contributed
	ConfirmBuildUnit

	// ConfirmContainer covers every directory of the units a container
	// discovered
	ConfirmContainer
)

func (k ConfirmKind) String() string {
	switch k {
	case ConfirmDirectory:
		return "directory"
	case ConfirmFilesUnderDirectory:
		return "files below directory"
	case ConfirmSingleFile:
		return "file"
	case ConfirmBuildUnit:
		return "outputs of project"
	case ConfirmContainer:
		return "outputs of projects in"
	default:
		return fmt.Sprintf("ConfirmKind(%d)", int(k))
	}
}

// Confirmer approves destructive actions. Calls are synchronous and made
// from a single goroutine.
type Confirmer interface {
	Confirm(kind ConfirmKind, path string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(kind ConfirmKind, path string) bool

func (f ConfirmFunc) Confirm(kind ConfirmKind, path string) bool {
	return f(kind, path)
}
