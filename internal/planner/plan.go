package planner

import (
	"os"
	"sort"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
)

// DeletionPlan is the de-duplicated set of directories and loose files
// ready for reporting or execution. Both slices are sorted by path.
type DeletionPlan struct {
	// Directories to remove, one entry per distinct directory
	Directories []DirectoryCandidate

	// Files are loose files removed independently of the directories
	Files []FileCandidate
}

// DirectoryCandidate is one directory and the build units that selected it.
type DirectoryCandidate struct {
	Path  string
	Kinds []buildunit.OutputKind
	Units []*buildunit.Record
}

// FileCandidate is one loose file and the build units that selected it.
type FileCandidate struct {
	Path  string
	Units []*buildunit.Record
}

// NewDeletionPlan creates a new empty DeletionPlan.
func NewDeletionPlan() *DeletionPlan {
	return &DeletionPlan{
		Directories: []DirectoryCandidate{},
		Files:       []FileCandidate{},
	}
}

// IsEmpty returns true if there is nothing to delete.
func (p *DeletionPlan) IsEmpty() bool {
	return len(p.Directories) == 0 && len(p.Files) == 0
}

func (p *DeletionPlan) sort() {
	sort.Slice(p.Directories, func(i, j int) bool { return p.Directories[i].Path < p.Directories[j].Path })
	sort.Slice(p.Files, func(i, j int) bool { return p.Files[i].Path < p.Files[j].Path })
}

// UnitNames returns the display names of the contributing units.
func (c DirectoryCandidate) UnitNames() []string {
	return unitNames(c.Units)
}

// UnitNames returns the display names of the contributing units.
func (c FileCandidate) UnitNames() []string {
	return unitNames(c.Units)
}

func unitNames(units []*buildunit.Record) []string {
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.DisplayName())
	}
	return names
}

// DirectoryStats is the size of one planned directory.
type DirectoryStats struct {
	Path  string
	Units []string
	Files int
	Bytes int64

	// Err is set when part of the tree could not be enumerated; the counts
	// then cover what was readable.
	Err error
}

// FileStats is the size of one planned loose file.
type FileStats struct {
	Path  string
	Bytes int64
}

// Summary is the reportable view of a plan.
type Summary struct {
	// Directories with at least one file or byte below them
	Directories []DirectoryStats

	// Empty lists directories that exist but hold nothing countable
	Empty []string

	// Missing lists directories that no longer exist
	Missing []string

	// Files are the loose files that still exist
	Files []FileStats

	TotalFiles int
	TotalBytes int64
}

// Summarize walks every planned directory (to maxDepth levels, negative
// for unbounded) and totals file counts and sizes.
func Summarize(fs fsops.FS, plan *DeletionPlan, maxDepth int) *Summary {
	sum := &Summary{}

	for _, dir := range plan.Directories {
		exists, err := fs.DirExists(dir.Path)
		if err != nil || !exists {
			sum.Missing = append(sum.Missing, dir.Path)
			continue
		}

		stats := DirectoryStats{Path: dir.Path, Units: dir.UnitNames()}
		stats.Err = fs.WalkFiles(dir.Path, maxDepth, func(_ string, info os.FileInfo) error {
			stats.Files++
			stats.Bytes += info.Size()
			return nil
		})

		if stats.Files == 0 && stats.Bytes == 0 {
			sum.Empty = append(sum.Empty, dir.Path)
			continue
		}
		sum.Directories = append(sum.Directories, stats)
		sum.TotalFiles += stats.Files
		sum.TotalBytes += stats.Bytes
	}

	for _, f := range plan.Files {
		info, err := fs.Lstat(f.Path)
		if err != nil || info.IsDir() {
			continue
		}
		sum.Files = append(sum.Files, FileStats{Path: f.Path, Bytes: info.Size()})
		sum.TotalFiles++
		sum.TotalBytes += info.Size()
	}

	return sum
}
