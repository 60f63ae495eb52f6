package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/binsweep/internal/buildunit"
)

// record aggregates the given observations and returns the single record
// for unit.
func record(t *testing.T, unit string, observations ...buildunit.Observation) *buildunit.Record {
	t.Helper()
	agg := buildunit.NewAggregator(false)
	for _, o := range observations {
		o.BuildUnitPath = unit
		require.NoError(t, agg.Record(o))
	}
	rec, ok := agg.Get(unit)
	require.True(t, ok)
	return rec
}

func outDir(path, cfg string, tfms ...string) buildunit.Observation {
	return buildunit.Observation{
		OutputPath:        path,
		OutputKind:        buildunit.OutputOut,
		ConfigurationName: cfg,
		TargetFrameworks:  tfms,
	}
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}
