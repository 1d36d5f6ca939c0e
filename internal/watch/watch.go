// Package watch implements the termination watcher: a single blocking wait
// on a process exit that notifies an ordered set of listeners exactly once.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInterrupted is returned by Run when its context ends before the
// process exits. No listener is notified in that case.
var ErrInterrupted = errors.New("watch: wait interrupted")

// State is the watcher's position in its lifecycle.
type State int

const (
	// StateWaiting means the process has not been observed to exit.
	StateWaiting State = iota
	// StateExited means the exit was observed and listeners were notified.
	StateExited
	// StateInterrupted means Run gave up waiting; listeners never fire.
	StateInterrupted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateExited:
		return "exited"
	case StateInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Listener receives the final exit code.
type Listener func(exitCode int)

// ID identifies a registered listener for removal.
type ID uint64

type entry struct {
	id ID
	fn Listener
}

// Watcher blocks on a wait function and fans the result out to listeners.
// It is safe for concurrent use.
type Watcher struct {
	wait func() int

	mu        sync.Mutex
	state     State
	exitCode  int
	firing    bool // listeners are being notified; state is still StateWaiting
	nextID    ID
	listeners []entry

	runOnce sync.Once
	done    chan struct{}
}

// New returns a watcher that observes exit through wait. wait must block
// until the process has exited (returning immediately if it already has)
// and return the final exit code.
func New(wait func() int) *Watcher {
	return &Watcher{
		wait: wait,
		done: make(chan struct{}),
	}
}

// Add registers l. Listeners fire in registration order. A listener added
// while notification is in progress runs after every earlier listener has
// returned. Once notification has finished, l is called immediately on the
// caller's goroutine. After an interruption, l is never called.
func (w *Watcher) Add(l Listener) ID {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	state, code := w.state, w.exitCode
	if state == StateWaiting {
		w.listeners = append(w.listeners, entry{id: id, fn: l})
	}
	w.mu.Unlock()

	if state == StateExited {
		l(code)
	}
	return id
}

// Remove unregisters the listener with the given id. It reports whether the
// listener was still registered. Removing a listener while notification is
// in progress does not stop it from firing.
func (w *Watcher) Remove(id ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.listeners {
		if e.id == id {
			w.listeners = append(w.listeners[:i:i], w.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ExitCode returns the observed exit code, or false until every listener
// has been notified and after an interruption.
func (w *Watcher) ExitCode() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exitCode, w.state == StateExited
}

// Done is closed once Run has either notified every listener or been
// interrupted.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Run blocks until the process exits or ctx ends. On exit every registered
// listener is called once, in order, before Run returns nil. On ctx
// cancellation Run returns an error wrapping ErrInterrupted and ctx.Err();
// the wait itself keeps going in the background so the process is reaped.
// Only the first call to Run has any effect.
func (w *Watcher) Run(ctx context.Context) error {
	err := errors.New("watch: already running")
	w.runOnce.Do(func() {
		defer close(w.done)
		err = w.run(ctx)
	})
	return err
}

func (w *Watcher) run(ctx context.Context) error {
	exited := make(chan int, 1)
	go func() {
		exited <- w.wait()
	}()

	select {
	case code := <-exited:
		w.fire(code)
		return nil
	case <-ctx.Done():
		// Prefer a completed wait over a simultaneous cancellation.
		select {
		case code := <-exited:
			w.fire(code)
			return nil
		default:
		}
		w.mu.Lock()
		w.state = StateInterrupted
		w.listeners = nil
		w.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
}

// fire notifies the registered listeners, then any added meanwhile, and
// only then transitions to StateExited.
func (w *Watcher) fire(code int) {
	w.mu.Lock()
	if w.state != StateWaiting || w.firing {
		w.mu.Unlock()
		return
	}
	w.firing = true
	w.exitCode = code
	for len(w.listeners) > 0 {
		batch := w.listeners
		w.listeners = nil
		w.mu.Unlock()

		for _, e := range batch {
			e.fn(code)
		}
		w.mu.Lock()
	}
	w.state = StateExited
	w.firing = false
	w.mu.Unlock()
}
