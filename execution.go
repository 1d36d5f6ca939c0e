package procio

import (
	"errors"
	"sync"

	"github.com/dmora/procio/internal/watch"
)

// Execution tracks one launch returned by Start. All methods are safe for
// concurrent use.
type Execution struct {
	id      string
	handle  *handle        // nil when the launch failed
	watcher *watch.Watcher // nil when the launch failed

	done chan struct{}

	mu   sync.Mutex
	errs []error
}

func newExecution(id string) *Execution {
	return &Execution{id: id, done: make(chan struct{})}
}

// ID returns the identifier also exposed through Handle.ID.
func (e *Execution) ID() string { return e.id }

// PID returns the operating-system process ID, or 0 if the launch failed.
func (e *Execution) PID() int {
	if e.handle == nil {
		return 0
	}
	return e.handle.PID()
}

// Done is closed once the exit notification (or wait interruption) has been
// dispatched and both output streams have been drained.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Wait blocks until Done is closed and returns Err.
func (e *Execution) Wait() error {
	<-e.done
	return e.Err()
}

// Err returns every error reported to the handler's OnIOError so far,
// joined, together with any handler panic recovered by the engine.
// A successful run with any exit code returns nil.
func (e *Execution) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

// ExitCode returns the exit code once the exit notification has completed.
func (e *Execution) ExitCode() (int, bool) {
	if e.watcher == nil {
		return -1, false
	}
	return e.watcher.ExitCode()
}

// OnExit registers fn to receive the exit code after the handler's
// OnProcessExited. If the exit was already observed fn runs immediately.
// fn never runs when the launch failed or the wait was interrupted. The
// returned function unregisters fn.
func (e *Execution) OnExit(fn func(exitCode int)) (remove func()) {
	if e.watcher == nil || fn == nil {
		return func() {}
	}
	id := e.watcher.Add(fn)
	return func() { e.watcher.Remove(id) }
}

// Terminate asks the process to stop. See Handle.Terminate.
func (e *Execution) Terminate() error {
	if e.handle == nil {
		return nil
	}
	return e.handle.Terminate()
}

// Kill stops the process immediately. See Handle.Kill.
func (e *Execution) Kill() error {
	if e.handle == nil {
		return nil
	}
	return e.handle.Kill()
}

func (e *Execution) record(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *Execution) finish() { close(e.done) }
