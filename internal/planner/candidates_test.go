package planner

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/binsweep/internal/buildunit"
)

func TestCandidateSet_DeduplicatesAcrossUnits(t *testing.T) {
	a := record(t, "/repo/src/A/A.csproj", outDir("/repo/out/shared", "Debug"))
	b := record(t, "/repo/src/B/B.csproj", outDir("/repo/out/shared", "Debug"))

	set := NewCandidateSet(false)
	assert.True(t, set.Add(Candidate{Path: "/repo/out/shared", Kind: buildunit.OutputOut, Unit: a}))
	assert.False(t, set.Add(Candidate{Path: "/repo/out/shared", Kind: buildunit.OutputOut, Unit: b}))

	plan := set.Plan()
	require.Len(t, plan.Directories, 1)
	dir := plan.Directories[0]
	assert.Equal(t, "/repo/out/shared", dir.Path)
	require.Len(t, dir.Units, 2)
	assert.Equal(t, a.Key(), dir.Units[0].Key())
	assert.Equal(t, b.Key(), dir.Units[1].Key())
}

func TestCandidateSet_KeyIgnoresCaseAndTrailingSeparator(t *testing.T) {
	a := record(t, "/repo/A.csproj", outDir("/repo/bin", "Debug"))

	set := NewCandidateSet(false)
	set.Add(Candidate{Path: "/repo/Bin", Kind: buildunit.OutputOut, Unit: a})
	set.Add(Candidate{Path: "/repo/bin/", Kind: buildunit.OutputBaseIntermediate, Unit: a})

	plan := set.Plan()
	require.Len(t, plan.Directories, 1)
	assert.Equal(t, "/repo/Bin", plan.Directories[0].Path, "first spelling wins")
	assert.Equal(t, []buildunit.OutputKind{buildunit.OutputOut, buildunit.OutputBaseIntermediate}, plan.Directories[0].Kinds)
	assert.Len(t, plan.Directories[0].Units, 1, "same unit counted once")
}

func TestCandidateSet_CaseSensitive(t *testing.T) {
	set := NewCandidateSet(true)
	set.Add(Candidate{Path: "/repo/Bin"})
	set.Add(Candidate{Path: "/repo/bin"})
	assert.Equal(t, 2, set.Len())
}

func TestCandidateSet_FilesAndOrdering(t *testing.T) {
	set := NewCandidateSet(false)
	set.Add(Candidate{Path: "/r/z"})
	set.Add(Candidate{Path: "/r/a"})
	set.AddFile("/r/pkg/B.1.0.0.nupkg", nil)
	set.AddFile("/r/pkg/A.1.0.0.nupkg", nil)
	set.AddFile("/r/pkg/a.1.0.0.NUPKG", nil)

	plan := set.Plan()
	assert.Equal(t, "/r/a", plan.Directories[0].Path)
	assert.Equal(t, "/r/z", plan.Directories[1].Path)
	require.Len(t, plan.Files, 2)
	assert.Equal(t, "/r/pkg/A.1.0.0.nupkg", plan.Files[0].Path)
	assert.Equal(t, "/r/pkg/B.1.0.0.nupkg", plan.Files[1].Path)
	assert.False(t, plan.IsEmpty())
	assert.True(t, NewCandidateSet(false).Plan().IsEmpty())
}

func TestCandidateSet_ConcurrentAdds(t *testing.T) {
	set := NewCandidateSet(false)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				set.Add(Candidate{Path: fmt.Sprintf("/r/dir%d", j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, set.Len())
}
