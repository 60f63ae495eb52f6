// Package buildunit aggregates output-path observations into one record per
// build unit (project file).
//
// Observations arrive concurrently from the property-query workers, one per
// (project, configuration, output kind). The Aggregator merges them per unit
// with copy-on-write snapshots so readers never see a half-merged record.
package buildunit

import (
	"path/filepath"
	"strings"
)

// OutputKind classifies a reported output directory.
type OutputKind int

const (
	// OutputOut is the primary output directory (OutDir), the most specific
	// leaf artifact folder such as bin/Debug/net8.0.
	OutputOut OutputKind = iota

	// OutputBaseOutput is the base output root (BaseOutputPath), e.g. bin/.
	OutputBaseOutput

	// OutputBaseIntermediate is the intermediate output root
	// (BaseIntermediateOutputPath), e.g. obj/.
	OutputBaseIntermediate
)

func (k OutputKind) String() string {
	switch k {
	case OutputOut:
		return "OutDir"
	case OutputBaseOutput:
		return "BaseOutputPath"
	case OutputBaseIntermediate:
		return "BaseIntermediateOutputPath"
	default:
		return "unknown"
	}
}

// ProjectKind identifies the project system of a build unit.
type ProjectKind int

const (
	ProjectUnknown ProjectKind = iota
	ProjectCsproj
	ProjectFsproj
	ProjectVbproj
	ProjectSqlproj
	ProjectVcxproj
)

func (k ProjectKind) String() string {
	switch k {
	case ProjectCsproj:
		return "csproj"
	case ProjectFsproj:
		return "fsproj"
	case ProjectVbproj:
		return "vbproj"
	case ProjectSqlproj:
		return "sqlproj"
	case ProjectVcxproj:
		return "vcxproj"
	default:
		return "unknown"
	}
}

// Native reports whether the project kind produces unmanaged output. Native
// projects are queried per platform and their outputs are never narrowed.
func (k ProjectKind) Native() bool {
	return k == ProjectVcxproj
}

// Supported reports whether the project kind can be queried at all.
func (k ProjectKind) Supported() bool {
	return k != ProjectUnknown
}

// KindOf derives the project kind from a project file's extension.
func KindOf(projectPath string) ProjectKind {
	switch strings.ToLower(filepath.Ext(projectPath)) {
	case ".csproj":
		return ProjectCsproj
	case ".fsproj":
		return ProjectFsproj
	case ".vbproj":
		return ProjectVbproj
	case ".sqlproj":
		return ProjectSqlproj
	case ".vcxproj":
		return ProjectVcxproj
	default:
		return ProjectUnknown
	}
}

// Observation is one resolved output path of one project configuration.
type Observation struct {
	// BuildUnitPath is the project file path, absolute or resolvable against
	// ParentContainerPath.
	BuildUnitPath string

	// OutputPath is the reported output directory, usually relative to the
	// project directory.
	OutputPath string

	OutputKind OutputKind

	// ConfigurationName is the build variant, e.g. "Debug". Optional.
	ConfigurationName string

	// TargetFrameworks holds the target framework identifier(s) the project
	// targets in this configuration. Optional.
	TargetFrameworks []string

	// ParentContainerPath is the directory of whatever discovered the unit.
	ParentContainerPath string

	// DisplayName is a friendly project name. Optional.
	DisplayName string

	ProjectKind ProjectKind
}

// Output is a rooted output path together with its kind.
type Output struct {
	Path string
	Kind OutputKind
}
