package engine

import "github.com/danieljhkim/binsweep/internal/planner"

// Clean selects which outputs are collected.
type Clean struct {
	// BuildOutput collects OutDir (or BaseOutputPath when OutDir is empty)
	BuildOutput bool

	// Intermediate collects BaseIntermediateOutputPath
	Intermediate bool

	// Packages collects $(PackageId).*.nupkg below PackageOutputPath
	Packages bool
}

// RunRequest represents a request to plan and optionally execute a cleanup.
type RunRequest struct {
	// Roots are directories, solution files or project files
	Roots []string

	// DryRun only plans; nothing is deleted
	DryRun bool

	// Parallel is the query pool width; 0 queries sequentially
	Parallel int

	Clean  Clean
	Policy planner.Policy

	// EnumerationDepth caps recursion when sizing or emptying directories;
	// negative is unbounded
	EnumerationDepth int

	// CaseSensitive keys paths by their exact spelling; it overrides the
	// matching fields of Policy and Execute
	CaseSensitive bool

	// Execute tunes the destructive phase
	Execute ExecuteOptions

	// Confirmer is asked before destructive actions unless the confirm
	// level is ConfirmForce
	Confirmer Confirmer
}

// ExecuteOptions tunes the Executor.
type ExecuteOptions struct {
	// DeleteEmptyDirs removes planned directories that hold nothing
	DeleteEmptyDirs bool

	// FilesOnly deletes the files below a directory and keeps the tree
	FilesOnly bool

	// EnumerationDepth caps the walk in FilesOnly mode; negative is unbounded
	EnumerationDepth int

	// CaseSensitive keys one-time confirmations by exact path spelling
	CaseSensitive bool

	Level ConfirmLevel
}
