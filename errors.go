package procio

import (
	"errors"
	"fmt"

	"github.com/dmora/procio/internal/stream"
)

// Sentinel errors for process launches and interaction.
var (
	// ErrValidation matches every *ValidationError. Validation errors are
	// returned synchronously from Start before any process exists.
	ErrValidation = errors.New("procio: validation failed")

	// ErrNilHandler indicates Start was called without a handler.
	ErrNilHandler = errors.New("procio: handler is nil")

	// ErrUnsupportedHandler indicates the handler implements neither
	// TextHandler nor BinaryHandler.
	ErrUnsupportedHandler = errors.New("procio: handler must implement TextHandler or BinaryHandler")

	// ErrInvalidExecutable indicates the executable path does not name an
	// existing regular file.
	ErrInvalidExecutable = errors.New("procio: invalid executable")

	// ErrInvalidDirectory indicates a working directory that does not name
	// an existing directory.
	ErrInvalidDirectory = errors.New("procio: invalid working directory")

	// ErrInvalidEnv indicates a malformed environment entry.
	ErrInvalidEnv = errors.New("procio: invalid environment")

	// ErrLaunch matches every *LaunchError.
	ErrLaunch = errors.New("procio: launch failed")

	// ErrStdinClosed is returned by handle writes once the process's
	// standard input has been closed, which happens only after the exit
	// notification (or a wait interruption) has been dispatched.
	ErrStdinClosed = errors.New("procio: stdin closed")

	// ErrWaitInterrupted is reported through Handler.OnIOError when the
	// context passed to Start ends before the process exits. No exit
	// notification follows.
	ErrWaitInterrupted = errors.New("procio: exit wait interrupted")

	// ErrLineTooLong is reported, wrapped in a *StreamError, after a text
	// stream that held a line longer than WithMaxLineSize has been drained.
	ErrLineTooLong = stream.ErrLineTooLong
)

// ValidationError describes a rejected precondition for a named parameter.
type ValidationError struct {
	Param string
	Path  string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("procio: invalid %s %q: %v", e.Param, e.Path, e.Err)
	}
	return fmt.Sprintf("procio: invalid %s: %v", e.Param, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LaunchError is reported through Handler.OnIOError when the operating
// system refuses to start the process.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("procio: start %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLaunch.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// StreamError is reported through Handler.OnIOError when a stream worker
// fails to read or decode its stream. The worker stops permanently; the
// other stream and the exit notification are unaffected.
type StreamError struct {
	Stream Stream
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("procio: read %s: %v", e.Stream, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
