package loader

import (
	"fmt"
	"path/filepath"

	"github.com/dannyboland/loql/internal/query"
)

// UnsupportedFormatError is returned for paths Classify does not recognize.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", filepath.Base(e.Path))
}

// Failure implements query.Classified.
func (e *UnsupportedFormatError) Failure() query.Failure { return query.UnsupportedFormat }

// MissingDependencyError is returned when the format needs support that this
// build or environment does not provide.
type MissingDependencyError struct {
	Path string
	Need string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("cannot load %s: %s support is not available", filepath.Base(e.Path), e.Need)
}

// Failure implements query.Classified.
func (e *MissingDependencyError) Failure() query.Failure { return query.MissingDependency }

// LoadError wraps a failure reading or registering a file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Failure implements query.Classified.
func (e *LoadError) Failure() query.Failure { return query.LoadFailure }
