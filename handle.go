package procio

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Handle is the interaction surface for one running process. It is bound
// to exactly one process and safe for concurrent use.
//
// Terminate and Kill are idempotent and return nil once the process has
// exited.
type Handle interface {
	// ID is the unique identifier assigned to this launch.
	ID() string

	// PID is the operating-system process ID.
	PID() int

	// Terminate asks the process to stop, letting it run its shutdown
	// logic (SIGTERM on Unix; on Windows there is no such request and the
	// process is killed).
	Terminate() error

	// Kill stops the process immediately.
	Kill() error
}

// TextHandle is the Handle given to a TextHandler.
type TextHandle interface {
	Handle

	// WriteLine writes line followed by a single "\n" to standard input.
	// A line that already ends in "\n" is written as is.
	WriteLine(line string) error

	// WriteString writes s to standard input verbatim.
	WriteString(s string) error
}

// BinaryHandle is the Handle given to a BinaryHandler.
type BinaryHandle interface {
	Handle

	// Write writes p to standard input verbatim.
	Write(p []byte) (int, error)
}

// handle implements TextHandle and BinaryHandle over the parent's end of
// the stdin pipe. Writes go straight to the pipe, so every write is flushed
// when it returns.
type handle struct {
	id   string
	proc *os.Process

	writeMu   sync.Mutex // serializes writers
	stdin     *os.File
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var (
	_ TextHandle   = (*handle)(nil)
	_ BinaryHandle = (*handle)(nil)
)

func newHandle(id string, proc *os.Process, stdin *os.File) *handle {
	return &handle{id: id, proc: proc, stdin: stdin}
}

func (h *handle) ID() string { return h.id }

func (h *handle) PID() int { return h.proc.Pid }

func (h *handle) Terminate() error {
	return signalProcess(h.proc, terminateSignal)
}

func (h *handle) Kill() error {
	return signalProcess(h.proc, os.Kill)
}

func (h *handle) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err := h.write([]byte(line))
	return err
}

func (h *handle) WriteString(s string) error {
	_, err := h.write([]byte(s))
	return err
}

func (h *handle) Write(p []byte) (int, error) {
	return h.write(p)
}

func (h *handle) write(p []byte) (int, error) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.closed.Load() {
		return 0, ErrStdinClosed
	}
	n, err := h.stdin.Write(p)
	if err != nil {
		if h.closed.Load() || errors.Is(err, os.ErrClosed) {
			return n, ErrStdinClosed
		}
		return n, fmt.Errorf("procio: write stdin: %w", err)
	}
	return n, nil
}

// closeStdin closes standard input. Later writes fail with ErrStdinClosed.
// The close does not wait for an in-flight write; that write fails instead.
func (h *handle) closeStdin() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		if err := h.stdin.Close(); err != nil {
			h.closeErr = fmt.Errorf("procio: close stdin: %w", err)
		}
	})
	return h.closeErr
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
