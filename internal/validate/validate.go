// Package validate provides precondition checks for process launches.
//
// Checks run against an [afero.Fs] so callers can substitute an in-memory
// filesystem in tests. Production code uses [afero.NewOsFs].
package validate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Sentinel errors returned (wrapped) by the checks in this package.
var (
	ErrNil          = errors.New("must not be nil")
	ErrEmpty        = errors.New("must not be empty")
	ErrNotFile      = errors.New("is not a regular file")
	ErrNotDirectory = errors.New("is not a directory")
)

// Error describes a failed precondition for a named parameter.
type Error struct {
	Param string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parameter %q %v: path %s", e.Param, e.Err, e.Path)
	}
	return fmt.Sprintf("parameter %q %v", e.Param, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotNil fails when isNil reports true. Interface nil-ness is decided by the
// caller because a typed nil pointer inside an interface is not == nil.
func NotNil(isNil bool, param string) error {
	if isNil {
		return &Error{Param: param, Err: ErrNil}
	}
	return nil
}

// File checks that path names an existing regular file and returns its
// absolute form.
func File(fs afero.Fs, path, param string) (string, error) {
	if path == "" {
		return "", &Error{Param: param, Err: ErrEmpty}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &Error{Param: param, Path: path, Err: err}
	}
	info, err := fs.Stat(abs)
	if err != nil {
		return "", &Error{Param: param, Path: abs, Err: fmt.Errorf("%w: %w", ErrNotFile, err)}
	}
	if !info.Mode().IsRegular() {
		return "", &Error{Param: param, Path: abs, Err: ErrNotFile}
	}
	return abs, nil
}

// Directory checks that path names an existing directory and returns its
// absolute form.
func Directory(fs afero.Fs, path, param string) (string, error) {
	if path == "" {
		return "", &Error{Param: param, Err: ErrEmpty}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &Error{Param: param, Path: path, Err: err}
	}
	ok, err := afero.IsDir(fs, abs)
	if err != nil {
		return "", &Error{Param: param, Path: abs, Err: fmt.Errorf("%w: %w", ErrNotDirectory, err)}
	}
	if !ok {
		return "", &Error{Param: param, Path: abs, Err: ErrNotDirectory}
	}
	return abs, nil
}
