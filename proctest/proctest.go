// Package proctest provides helpers for testing code built on procio:
// recording handlers and a builder for the go-echo helper process.
package proctest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/dmora/procio"
)

// DefaultTimeout bounds the Wait helpers.
const DefaultTimeout = 10 * time.Second

var (
	echoBuildOnce sync.Once
	echoPath      string
	errEchoBuild  error
	errNoGo       = errors.New("go toolchain not on PATH")
)

// buildEcho compiles testdata/go-echo once per test binary.
func buildEcho() {
	if _, err := exec.LookPath("go"); err != nil {
		errEchoBuild = errNoGo
		return
	}
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		errEchoBuild = errors.New("locate proctest source")
		return
	}
	src := filepath.Join(filepath.Dir(file), "..", "testdata", "go-echo", "main.go")

	dir, err := os.MkdirTemp("", "procio-echo-*")
	if err != nil {
		errEchoBuild = fmt.Errorf("tmpdir: %w", err)
		return
	}
	name := "go-echo"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	echoPath = filepath.Join(dir, name)
	cmd := exec.Command("go", "build", "-o", echoPath, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		errEchoBuild = fmt.Errorf("build go-echo: %w: %s", err, out)
		_ = os.RemoveAll(dir)
	}
}

// EchoBinary returns the path of the compiled go-echo helper, building it
// on first use. The test is skipped when no Go toolchain is available.
func EchoBinary(tb testing.TB) string {
	tb.Helper()
	echoBuildOnce.Do(buildEcho)
	if errors.Is(errEchoBuild, errNoGo) {
		tb.Skip("go-echo: ", errEchoBuild)
	}
	if errEchoBuild != nil {
		tb.Fatalf("go-echo build failed: %v", errEchoBuild)
	}
	return echoPath
}

// Echo returns a Command running the go-echo helper in the given mode.
func Echo(tb testing.TB, args ...string) procio.Command {
	tb.Helper()
	return procio.Command{Path: EchoBinary(tb), Args: args}
}

// WaitDone waits for exec to finish and returns its Err.
func WaitDone(tb testing.TB, e *procio.Execution) error {
	tb.Helper()
	select {
	case <-e.Done():
		return e.Err()
	case <-time.After(DefaultTimeout):
		tb.Fatalf("execution %s did not finish within %s", e.ID(), DefaultTimeout)
		return nil
	}
}

// recorder holds the lifecycle state shared by both recording handlers.
type recorder struct {
	mu       sync.Mutex
	exitCode int
	exits    int
	errs     []error
	exited   chan struct{}
	events   []string
}

func newRecorder() recorder {
	return recorder{exitCode: -1, exited: make(chan struct{})}
}

func (r *recorder) OnProcessExited(exitCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits++
	r.events = append(r.events, "exit")
	if r.exits == 1 {
		r.exitCode = exitCode
		close(r.exited)
	}
}

func (r *recorder) OnIOError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.events = append(r.events, "error")
}

func (r *recorder) event(name string) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

// Exited is closed on the first OnProcessExited.
func (r *recorder) Exited() <-chan struct{} { return r.exited }

// ExitCode returns the first reported exit code, or -1.
func (r *recorder) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}

// Exits returns how many times OnProcessExited was called.
func (r *recorder) Exits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exits
}

// Errors returns the errors passed to OnIOError.
func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Events returns the lifecycle callbacks in arrival order ("init",
// "exit", "error"). Data callbacks are not included.
func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// WaitExit waits for OnProcessExited and returns the exit code.
func (r *recorder) WaitExit(tb testing.TB) int {
	tb.Helper()
	select {
	case <-r.exited:
		return r.ExitCode()
	case <-time.After(DefaultTimeout):
		tb.Fatalf("no exit notification within %s", DefaultTimeout)
		return -1
	}
}

// Text records every TextHandler callback. Init, when set, runs inside
// OnInitialized.
type Text struct {
	recorder
	Init func(h procio.TextHandle)

	handle procio.TextHandle
	stdout []string
	stderr []string
}

var _ procio.TextHandler = (*Text)(nil)

// NewText returns an empty recording TextHandler.
func NewText() *Text {
	return &Text{recorder: newRecorder()}
}

func (t *Text) OnInitialized(h procio.TextHandle) {
	t.mu.Lock()
	t.handle = h
	t.mu.Unlock()
	t.event("init")
	if t.Init != nil {
		t.Init(h)
	}
}

func (t *Text) OnStdLine(_ procio.TextHandle, line string) {
	t.mu.Lock()
	t.stdout = append(t.stdout, line)
	t.mu.Unlock()
}

func (t *Text) OnErrorLine(_ procio.TextHandle, line string) {
	t.mu.Lock()
	t.stderr = append(t.stderr, line)
	t.mu.Unlock()
}

// Handle returns the handle passed to OnInitialized.
func (t *Text) Handle() procio.TextHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle
}

// Stdout returns the stdout lines received so far.
func (t *Text) Stdout() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.stdout...)
}

// Stderr returns the stderr lines received so far.
func (t *Text) Stderr() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.stderr...)
}

// Binary records every BinaryHandler callback, copying each chunk out of
// the shared buffer. Size is reported through BufferSize.
type Binary struct {
	recorder
	Size int
	Init func(h procio.BinaryHandle)

	handle procio.BinaryHandle
	stdout bytes.Buffer
	stderr bytes.Buffer
	chunks int
}

var (
	_ procio.BinaryHandler = (*Binary)(nil)
	_ procio.BufferSizer   = (*Binary)(nil)
)

// NewBinary returns an empty recording BinaryHandler reading size-byte
// chunks. size <= 0 uses the engine default.
func NewBinary(size int) *Binary {
	return &Binary{recorder: newRecorder(), Size: size}
}

func (b *Binary) BufferSize() int { return b.Size }

func (b *Binary) OnInitialized(h procio.BinaryHandle) {
	b.mu.Lock()
	b.handle = h
	b.mu.Unlock()
	b.event("init")
	if b.Init != nil {
		b.Init(h)
	}
}

func (b *Binary) OnStdBytes(_ procio.BinaryHandle, n int, buf []byte) {
	b.mu.Lock()
	b.stdout.Write(buf[:n])
	b.chunks++
	b.mu.Unlock()
}

func (b *Binary) OnErrorBytes(_ procio.BinaryHandle, n int, buf []byte) {
	b.mu.Lock()
	b.stderr.Write(buf[:n])
	b.chunks++
	b.mu.Unlock()
}

// Handle returns the handle passed to OnInitialized.
func (b *Binary) Handle() procio.BinaryHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// Stdout returns a copy of all stdout bytes received so far.
func (b *Binary) Stdout() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.stdout.Bytes())
}

// Stderr returns a copy of all stderr bytes received so far.
func (b *Binary) Stderr() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.stderr.Bytes())
}

// Chunks returns how many data callbacks were received.
func (b *Binary) Chunks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chunks
}
