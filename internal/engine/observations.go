package engine

import (
	"path/filepath"
	"sort"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/discover"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/msbuild"
	"github.com/danieljhkim/binsweep/internal/pathx"
)

// observationsFromProperties maps the evaluated properties of one project
// configuration to the observations selected by clean. The primary output
// is OutDir; BaseOutputPath is only used when OutDir is empty.
func observationsFromProperties(p discover.Project, cfg discover.Config, props msbuild.Properties, clean Clean) []buildunit.Observation {
	base := buildunit.Observation{
		BuildUnitPath:       p.Path,
		ConfigurationName:   cfg.Configuration,
		TargetFrameworks:    props.TargetFrameworks(),
		ParentContainerPath: p.Container,
		DisplayName:         props.ProjectName(),
		ProjectKind:         p.Kind,
	}

	var out []buildunit.Observation
	if clean.BuildOutput {
		if dir := props.OutDir(); dir != "" {
			out = append(out, withOutput(base, dir, buildunit.OutputOut))
		} else if dir := props.BaseOutputPath(); dir != "" {
			out = append(out, withOutput(base, dir, buildunit.OutputBaseOutput))
		}
	}
	if clean.Intermediate {
		if dir := props.BaseIntermediateOutputPath(); dir != "" {
			out = append(out, withOutput(base, dir, buildunit.OutputBaseIntermediate))
		}
	}
	if len(out) == 0 {
		// Still record configuration and frameworks for the unit.
		out = append(out, base)
	}
	return out
}

func withOutput(obs buildunit.Observation, path string, kind buildunit.OutputKind) buildunit.Observation {
	obs.OutputPath = path
	obs.OutputKind = kind
	return obs
}

// containerObservation adds container as an extra protected parent of the
// unit without contributing an output.
func containerObservation(p discover.Project, container string) buildunit.Observation {
	return buildunit.Observation{
		BuildUnitPath:       p.Path,
		ParentContainerPath: container,
		ProjectKind:         p.Kind,
	}
}

// packageFiles lists $(PackageId).*.nupkg in the package output directory.
func packageFiles(fs fsops.FS, projectPath string, props msbuild.Properties) ([]string, error) {
	dir := props.PackageOutputPath()
	id := props.PackageID()
	if dir == "" || id == "" {
		return nil, nil
	}

	rooted, err := pathx.RootPath(dir, filepath.Dir(projectPath))
	if err != nil {
		return nil, err
	}
	exists, err := fs.DirExists(rooted)
	if err != nil || !exists {
		return nil, err
	}

	entries, err := fs.ReadDir(rooted)
	if err != nil {
		return nil, err
	}

	pattern := id + ".*.nupkg"
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			files = append(files, filepath.Join(rooted, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
