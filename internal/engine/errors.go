package engine

import "errors"

var (
	// ErrUnsafeDeletion indicates a build unit was vetoed by the safety gate.
	ErrUnsafeDeletion = errors.New("unsafe deletion")

	// ErrPropertyQuery indicates the build backend returned nothing usable
	// for a project.
	ErrPropertyQuery = errors.New("property query failed")

	// ErrDeletionFailed indicates a file or directory could not be removed.
	ErrDeletionFailed = errors.New("deletion failed")

	// ErrNoBackend indicates no build backend could be located. It is the
	// only error that aborts a run before any project is queried.
	ErrNoBackend = errors.New("no build backend found")

	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("validation failed")
)

// UnitError records why a build unit produced no candidates.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string {
	return e.Unit + ": " + e.Err.Error()
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// DeletionError records a single failed removal.
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return "failed to delete " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both ErrDeletionFailed and the underlying cause.
func (e *DeletionError) Unwrap() []error {
	return []error{ErrDeletionFailed, e.Err}
}
