package engine

import (
	"log/slog"
	"os"
	"sort"

	"github.com/danieljhkim/binsweep/internal/buildunit"
	"github.com/danieljhkim/binsweep/internal/fsops"
	"github.com/danieljhkim/binsweep/internal/logfields"
	"github.com/danieljhkim/binsweep/internal/metrics"
	"github.com/danieljhkim/binsweep/internal/pathx"
	"github.com/danieljhkim/binsweep/internal/planner"
)

// Executor removes the entries of a DeletionPlan. It is not safe for
// concurrent use; confirmations are asked one at a time.
type Executor struct {
	fs        fsops.FS
	opts      ExecuteOptions
	confirmer Confirmer
	recorder  metrics.Recorder
	logger    *slog.Logger

	// decisions caches per-unit and per-container answers
	decisions map[string]bool
}

// NewExecutor creates an Executor. Without a confirmer every action that
// needs confirmation is declined.
func NewExecutor(fs fsops.FS, opts ExecuteOptions, confirmer Confirmer, recorder metrics.Recorder, logger *slog.Logger) *Executor {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		fs:        fs,
		opts:      opts,
		confirmer: confirmer,
		recorder:  recorder,
		logger:    logger,
		decisions: make(map[string]bool),
	}
}

// Execute removes every directory, then every loose file, in path order.
// A failure is recorded and the remaining entries are still processed.
func (x *Executor) Execute(plan *planner.DeletionPlan) *ExecutionResult {
	res := &ExecutionResult{}
	for _, dir := range plan.Directories {
		x.deleteDirectory(dir, res)
	}
	for _, f := range plan.Files {
		x.deleteFile(f, res)
	}
	return res
}

func (x *Executor) deleteDirectory(dir planner.DirectoryCandidate, res *ExecutionResult) {
	logger := x.logger.With(logfields.Path(dir.Path))

	exists, err := x.fs.DirExists(dir.Path)
	if err != nil {
		x.fail(res, metrics.TargetDirectory, dir.Path, err)
		return
	}
	if !exists {
		verbose(logger, "Directory no longer exists")
		x.skip(res, metrics.TargetDirectory, dir.Path)
		return
	}

	empty, err := fsops.IsEmpty(x.fs, dir.Path)
	if err != nil {
		x.fail(res, metrics.TargetDirectory, dir.Path, err)
		return
	}

	switch {
	case empty && !x.opts.DeleteEmptyDirs:
		verbose(logger, "Directory is empty")
		x.skip(res, metrics.TargetDirectory, dir.Path)

	case empty:
		if !x.approve(ConfirmDirectory, dir.Path, dir.Units) {
			x.decline(res, metrics.TargetDirectory, dir.Path)
			return
		}
		logger.Debug("Deleting empty directory")
		if err := x.fs.Remove(dir.Path); err != nil {
			x.fail(res, metrics.TargetDirectory, dir.Path, err)
			return
		}
		res.DeletedDirs = append(res.DeletedDirs, dir.Path)
		x.recorder.IncDeletion(metrics.TargetDirectory, metrics.ResultDeleted)

	case x.opts.FilesOnly:
		if !x.approve(ConfirmFilesUnderDirectory, dir.Path, dir.Units) {
			x.decline(res, metrics.TargetDirectory, dir.Path)
			return
		}
		x.deleteFilesBelow(dir.Path, res, logger)

	default:
		if !x.approve(ConfirmDirectory, dir.Path, dir.Units) {
			x.decline(res, metrics.TargetDirectory, dir.Path)
			return
		}
		logger.Debug("Deleting directory")
		if err := x.fs.RemoveAll(dir.Path); err != nil {
			x.fail(res, metrics.TargetDirectory, dir.Path, err)
			return
		}
		res.DeletedDirs = append(res.DeletedDirs, dir.Path)
		x.recorder.IncDeletion(metrics.TargetDirectory, metrics.ResultDeleted)
	}
}

// deleteFilesBelow removes the files of a tree and keeps its directories.
func (x *Executor) deleteFilesBelow(dir string, res *ExecutionResult, logger *slog.Logger) {
	var files []string
	err := x.fs.WalkFiles(dir, x.opts.EnumerationDepth, func(path string, _ os.FileInfo) error {
		files = append(files, path)
		return nil
	})
	if err != nil {
		// Whatever was enumerated is still removed.
		logger.Warn("Failed to enumerate all files", logfields.Error(err))
		res.Failures = append(res.Failures, &DeletionError{Path: dir, Err: err})
	}

	sort.Strings(files)
	for _, f := range files {
		if err := x.fs.Remove(f); err != nil {
			x.fail(res, metrics.TargetFile, f, err)
			continue
		}
		res.DeletedFiles = append(res.DeletedFiles, f)
		x.recorder.IncDeletion(metrics.TargetFile, metrics.ResultDeleted)
	}
	logger.Debug("Deleted files below directory", logfields.Files(len(files)))
}

func (x *Executor) deleteFile(f planner.FileCandidate, res *ExecutionResult) {
	info, err := x.fs.Lstat(f.Path)
	if err != nil || info.IsDir() {
		x.skip(res, metrics.TargetFile, f.Path)
		return
	}
	if x.opts.Level != ConfirmForce && !x.ask(ConfirmSingleFile, f.Path) {
		x.decline(res, metrics.TargetFile, f.Path)
		return
	}
	x.logger.Debug("Deleting file", logfields.Path(f.Path))
	if err := x.fs.Remove(f.Path); err != nil {
		x.fail(res, metrics.TargetFile, f.Path, err)
		return
	}
	res.DeletedFiles = append(res.DeletedFiles, f.Path)
	x.recorder.IncDeletion(metrics.TargetFile, metrics.ResultDeleted)
}

// approve applies the confirm level to a directory action. Unit and
// container answers are asked once and reused for later directories.
func (x *Executor) approve(kind ConfirmKind, path string, units []*buildunit.Record) bool {
	switch x.opts.Level {
	case ConfirmForce:
		return true
	case ConfirmProj:
		if len(units) > 0 {
			return x.askOnce(ConfirmBuildUnit, units[0].Path())
		}
	case ConfirmSln:
		if container := primaryContainer(units); container != "" {
			return x.askOnce(ConfirmContainer, container)
		}
	}
	return x.ask(kind, path)
}

func (x *Executor) askOnce(kind ConfirmKind, path string) bool {
	key := kind.String() + "#" + pathx.Key(path, x.opts.CaseSensitive)
	if answer, ok := x.decisions[key]; ok {
		return answer
	}
	answer := x.ask(kind, path)
	x.decisions[key] = answer
	return answer
}

func (x *Executor) ask(kind ConfirmKind, path string) bool {
	if x.confirmer == nil {
		return false
	}
	return x.confirmer.Confirm(kind, path)
}

// primaryContainer picks the most specific parent container of the first
// contributing unit, which is the discovering solution rather than an
// enclosing repository root.
func primaryContainer(units []*buildunit.Record) string {
	if len(units) == 0 {
		return ""
	}
	var best string
	for _, c := range units[0].ParentContainers() {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

func (x *Executor) fail(res *ExecutionResult, target metrics.Target, path string, err error) {
	x.logger.Warn("Deletion failed", logfields.Path(path), logfields.Error(err))
	res.Failures = append(res.Failures, &DeletionError{Path: path, Err: err})
	x.recorder.IncDeletion(target, metrics.ResultFailed)
}

func (x *Executor) skip(res *ExecutionResult, target metrics.Target, path string) {
	res.Skipped = append(res.Skipped, path)
	x.recorder.IncDeletion(target, metrics.ResultSkipped)
}

func (x *Executor) decline(res *ExecutionResult, target metrics.Target, path string) {
	verbose(x.logger, "Deletion declined", logfields.Path(path))
	res.Declined = append(res.Declined, path)
	x.recorder.IncDeletion(target, metrics.ResultDeclined)
}
