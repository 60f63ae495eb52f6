package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danieljhkim/binsweep/internal/engine"
	"github.com/danieljhkim/binsweep/internal/fsops"
)

// Report is the JSON document written by --report.
type Report struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	DryRun      bool        `json:"dry_run"`
	Roots       []string    `json:"roots"`
	Units       int         `json:"units"`
	Directories []Directory `json:"directories"`
	Empty       []string    `json:"empty,omitempty"`
	Files       []File      `json:"files,omitempty"`
	Skipped     []Skipped   `json:"skipped,omitempty"`
	Totals      Totals      `json:"totals"`
	Execution   *Execution  `json:"execution,omitempty"`
	DurationMS  int64       `json:"duration_ms"`
}

// Directory is one planned directory.
type Directory struct {
	Path  string   `json:"path"`
	Files int      `json:"files"`
	Bytes int64    `json:"bytes"`
	Size  string   `json:"size"`
	Units []string `json:"units"`
	Error string   `json:"error,omitempty"`
}

// File is one planned loose file.
type File struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// Skipped is a unit that produced no candidates.
type Skipped struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// Totals sums the plan.
type Totals struct {
	Directories int    `json:"directories"`
	Files       int    `json:"files"`
	Bytes       int64  `json:"bytes"`
	Size        string `json:"size"`
}

// Execution summarizes the destructive phase.
type Execution struct {
	DeletedDirs  int      `json:"deleted_dirs"`
	DeletedFiles int      `json:"deleted_files"`
	Declined     []string `json:"declined,omitempty"`
	Failures     []string `json:"failures,omitempty"`
}

// New builds the report of result.
func New(result *engine.RunResult, now time.Time) *Report {
	sum := result.Summary
	rep := &Report{
		RunID:       result.RunID,
		GeneratedAt: now.UTC(),
		DryRun:      result.DryRun,
		Roots:       result.Roots,
		Units:       result.Units,
		Directories: make([]Directory, 0, len(sum.Directories)),
		Empty:       sum.Empty,
		DurationMS:  result.Duration.Milliseconds(),
		Totals: Totals{
			Directories: len(sum.Directories),
			Files:       sum.TotalFiles,
			Bytes:       sum.TotalBytes,
			Size:        humanize.IBytes(uint64(sum.TotalBytes)),
		},
	}

	for _, d := range sum.Directories {
		dir := Directory{
			Path:  d.Path,
			Files: d.Files,
			Bytes: d.Bytes,
			Size:  humanize.IBytes(uint64(d.Bytes)),
			Units: d.Units,
		}
		if d.Err != nil {
			dir.Error = d.Err.Error()
		}
		rep.Directories = append(rep.Directories, dir)
	}
	for _, f := range sum.Files {
		rep.Files = append(rep.Files, File{Path: f.Path, Bytes: f.Bytes})
	}
	for _, s := range result.Skipped {
		rep.Skipped = append(rep.Skipped, Skipped{Unit: s.Unit, Reason: s.Err.Error()})
	}

	if x := result.Execution; x != nil {
		exec := &Execution{
			DeletedDirs:  len(x.DeletedDirs),
			DeletedFiles: len(x.DeletedFiles),
			Declined:     x.Declined,
		}
		for _, f := range x.Failures {
			exec.Failures = append(exec.Failures, f.Error())
		}
		rep.Execution = exec
	}
	return rep
}

// Write stores rep at path atomically.
func Write(fs fsops.FS, path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if err := fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
