package loader

import (
	"errors"
	"fmt"

	"github.com/roach88/salesmap/internal/sdk"
)

// ErrNotInitialized is returned when libraries are requested before Init.
var ErrNotInitialized = errors.New("loader: not initialized")

// LoadError reports a failed library import.
type LoadError struct {
	Library sdk.Library
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load library %q: %v", e.Library, e.Err)
}

// Unwrap returns the import error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// FailedLibraries lists every library named by a LoadError in err.
func FailedLibraries(err error) []sdk.Library {
	var out []sdk.Library
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if le, ok := err.(*LoadError); ok {
			out = append(out, le.Library)
			return
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				walk(e)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
