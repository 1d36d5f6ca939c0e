package procio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmora/procio/internal/stream"
	"github.com/dmora/procio/internal/validate"
	"github.com/dmora/procio/internal/watch"
	"github.com/dmora/procio/metrics"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Start launches cmd and delivers its events to h, which must implement
// TextHandler or BinaryHandler (TextHandler wins if it implements both).
//
// The returned error is non-nil only for validation failures, in which case
// no process was started and no callback runs. Every other outcome is
// reported through h:
//
//   - launch failure: OnIOError(*LaunchError) once, nothing else; the
//     returned Execution is already done.
//   - success: OnInitialized runs on the calling goroutine before Start
//     returns, then both streams are drained concurrently and
//     OnProcessExited fires once after the process exits.
//
// ctx bounds the exit wait only. Cancelling it before the process exits
// reports ErrWaitInterrupted through OnIOError instead of an exit
// notification; the process itself is not signalled. Use the Handle or the
// Execution to stop it.
func Start(ctx context.Context, cmd Command, h Handler, opts ...Option) (*Execution, error) {
	return start(ctx, cmd.Clone(), h, ResolveOptions(opts...))
}

// StartInExecutableDir is Start with the working directory set to the
// directory containing cmd.Path. cmd.Dir is ignored.
func StartInExecutableDir(ctx context.Context, cmd Command, h Handler, opts ...Option) (*Execution, error) {
	return start(ctx, cmd.InExecutableDir(), h, ResolveOptions(opts...))
}

func start(ctx context.Context, cmd Command, h Handler, o StartOptions) (*Execution, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := validateStart(o, &cmd, h)
	if err != nil {
		return nil, err
	}
	cmd.Path = path

	id := uuid.NewString()
	l := &launch{
		cmd:     cmd,
		opts:    o,
		handler: h,
		log:     o.Logger.With(zap.String("exec_id", id), zap.String("path", path)),
		metrics: o.Metrics,
		exec:    newExecution(id),
	}
	l.text, _ = h.(TextHandler)
	if l.text == nil {
		l.binary = h.(BinaryHandler)
	}

	if err := l.spawn(); err != nil {
		lerr := &LaunchError{Path: path, Err: err}
		l.log.Error("launch failed", zap.Error(err))
		l.metrics.LaunchFailed()
		l.report("launch", lerr)
		l.exec.finish()
		return l.exec, nil
	}
	l.run(ctx)
	return l.exec, nil
}

// validateStart checks the preconditions that must hold before any process
// exists and returns the absolute executable path.
func validateStart(o StartOptions, cmd *Command, h Handler) (string, error) {
	if isNil(h) {
		return "", &ValidationError{Param: "handler", Err: ErrNilHandler}
	}
	_, isText := h.(TextHandler)
	_, isBinary := h.(BinaryHandler)
	if !isText && !isBinary {
		return "", &ValidationError{Param: "handler", Err: fmt.Errorf("%w: got %T", ErrUnsupportedHandler, h)}
	}

	path, err := validate.File(o.FS, cmd.Path, "executable")
	if err != nil {
		return "", fromValidate(err, ErrInvalidExecutable)
	}
	if cmd.Dir != "" {
		dir, err := validate.Directory(o.FS, cmd.Dir, "dir")
		if err != nil {
			return "", fromValidate(err, ErrInvalidDirectory)
		}
		cmd.Dir = dir
	}
	if err := validateEnv(cmd.Env); err != nil {
		return "", &ValidationError{Param: "env", Err: err}
	}
	return path, nil
}

// fromValidate lifts an internal validation failure into a ValidationError
// wrapping sentinel.
func fromValidate(err, sentinel error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return &ValidationError{Param: verr.Param, Path: verr.Path, Err: fmt.Errorf("%w: %w", sentinel, verr.Err)}
	}
	return &ValidationError{Err: fmt.Errorf("%w: %w", sentinel, err)}
}

// isNil reports whether h is nil or a typed nil pointer, map, func, or
// similar wrapped in the interface.
func isNil(h Handler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// launch holds the private state of one Start call.
type launch struct {
	cmd     Command
	opts    StartOptions
	handler Handler
	text    TextHandler
	binary  BinaryHandler
	log     *zap.Logger
	metrics *metrics.Collector
	exec    *Execution

	proc    *exec.Cmd
	started time.Time
	handle  *handle
	stdout  *readEnd
	stderr  *readEnd

	interrupted atomic.Bool
	stopStreams context.CancelFunc
}

// readEnd is the parent's side of an output pipe. It is closed once, either
// when its worker finishes or when the exit wait is interrupted.
type readEnd struct {
	*os.File
	close func() error
}

func newReadEnd(f *os.File) *readEnd {
	return &readEnd{File: f, close: sync.OnceValue(f.Close)}
}

// spawn creates the three pipes and starts the process. The child's pipe
// ends are closed in the parent once the child holds them.
func (l *launch) spawn() error {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	pipe := func() (r, w *os.File, err error) {
		r, w, err = os.Pipe()
		if err == nil {
			files = append(files, r, w)
		}
		return r, w, err
	}

	stdinR, stdinW, err := pipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := pipe()
	if err != nil {
		closeAll()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := pipe()
	if err != nil {
		closeAll()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	c := exec.Command(l.cmd.Path, l.cmd.Args...)
	c.Dir = l.cmd.Dir
	c.Env = environ(l.cmd.Env)
	// *os.File values are handed to the child directly, so exec starts no
	// copying goroutines and Wait returns as soon as the process exits.
	c.Stdin = stdinR
	c.Stdout = stdoutW
	c.Stderr = stderrW

	err = c.Start()
	_ = stdinR.Close()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if err != nil {
		_ = stdinW.Close()
		_ = stdoutR.Close()
		_ = stderrR.Close()
		return err
	}

	l.proc = c
	l.started = time.Now()
	l.handle = newHandle(l.exec.id, c.Process, stdinW)
	l.stdout = newReadEnd(stdoutR)
	l.stderr = newReadEnd(stderrR)
	return nil
}

// run wires the watcher and the stream workers around a started process.
func (l *launch) run(ctx context.Context) {
	l.log = l.log.With(zap.Int("pid", l.handle.PID()))
	l.log.Debug("process started", zap.Strings("args", l.cmd.Args), zap.String("dir", l.cmd.Dir))
	l.metrics.LaunchSucceeded()

	w := watch.New(func() int {
		// A non-zero exit is reported by Wait as *exec.ExitError; the code
		// is taken from ProcessState either way.
		_ = l.proc.Wait()
		return exitCode(l.proc.ProcessState)
	})
	w.Add(l.onExit)
	l.exec.handle = l.handle
	l.exec.watcher = w

	l.initialize()

	// Workers outlive ctx: trailing output after a normal exit is still
	// delivered. Only an interrupted wait stops them.
	streamCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	l.stopStreams = stop

	var wg conc.WaitGroup
	wg.Go(func() { l.watch(ctx, w) })
	wg.Go(func() { l.drain(streamCtx, Stdout, l.stdout) })
	wg.Go(func() { l.drain(streamCtx, Stderr, l.stderr) })

	go func() {
		if rec := wg.WaitAndRecover(); rec != nil {
			err := rec.AsError()
			l.log.Warn("handler panic recovered", zap.Error(err))
			l.exec.record(err)
		}
		stop()
		l.log.Debug("execution finished")
		l.exec.finish()
	}()
}

// initialize hands the handle to the handler. If OnInitialized panics the
// process is killed and its pipes closed before the panic continues.
func (l *launch) initialize() {
	ok := false
	defer func() {
		if ok {
			return
		}
		_ = l.handle.Kill()
		_ = l.handle.closeStdin()
		_ = l.stdout.close()
		_ = l.stderr.close()
		go func() { _ = l.proc.Wait() }()
	}()
	if l.text != nil {
		l.text.OnInitialized(l.handle)
	} else {
		l.binary.OnInitialized(l.handle)
	}
	ok = true
}

// onExit is the first listener registered on the watcher. The handler sees
// the exit code before standard input is closed.
func (l *launch) onExit(code int) {
	l.log.Debug("process exited", zap.Int("exit_code", code))
	l.metrics.Exited(code, time.Since(l.started))
	defer l.closeStdin()
	l.handler.OnProcessExited(code)
}

func (l *launch) closeStdin() {
	if err := l.handle.closeStdin(); err != nil {
		l.log.Warn("stdin close failed", zap.Error(err))
		l.report("stdin", err)
		return
	}
	l.log.Debug("stdin closed")
}

// watch runs the termination watcher. On interruption the handler is told
// once, stdin is closed, and the output pipes are released so the workers
// stop; the process is reaped in the background.
func (l *launch) watch(ctx context.Context, w *watch.Watcher) {
	err := w.Run(ctx)
	if err == nil {
		return
	}
	l.interrupted.Store(true)
	l.stopStreams()
	l.metrics.Abandoned()
	l.log.Warn("exit wait interrupted", zap.Error(err))
	l.report("wait", fmt.Errorf("%w: %w", ErrWaitInterrupted, ctx.Err()))
	l.closeStdin()
	_ = l.stdout.close()
	_ = l.stderr.close()
}

// drain runs one stream worker to completion.
func (l *launch) drain(ctx context.Context, s Stream, r *readEnd) {
	defer func() { _ = r.close() }()

	var err error
	if l.text != nil {
		err = l.textWorker(s, r).Run(ctx)
	} else {
		err = l.binaryWorker(s, r).Run(ctx)
	}

	switch {
	case err == nil:
		l.log.Debug("stream drained", zap.Stringer("stream", s))
	case l.interrupted.Load() && errors.Is(err, os.ErrClosed):
		// Pipe released by an interrupted wait.
	default:
		l.log.Warn("stream read failed", zap.Stringer("stream", s), zap.Error(err))
		l.report(s.String(), &StreamError{Stream: s, Err: err})
	}
}

func (l *launch) textWorker(s Stream, r io.Reader) stream.Text {
	deliver := l.text.OnStdLine
	if s == Stderr {
		deliver = l.text.OnErrorLine
	}
	name := s.String()
	return stream.Text{
		R:        r,
		Encoding: l.opts.Encoding,
		MaxLine:  l.opts.MaxLineSize,
		OnLine: func(line string) {
			l.metrics.StreamLine(name)
			deliver(l.handle, line)
		},
	}
}

func (l *launch) binaryWorker(s Stream, r io.Reader) stream.Binary {
	deliver := l.binary.OnStdBytes
	if s == Stderr {
		deliver = l.binary.OnErrorBytes
	}
	name := s.String()
	return stream.Binary{
		R:    r,
		Size: l.opts.bufferSize(l.binary),
		OnChunk: func(n int, buf []byte) {
			l.metrics.StreamBytes(name, n)
			deliver(l.handle, n, buf)
		},
	}
}

// report forwards err to the handler and records it on the Execution.
func (l *launch) report(source string, err error) {
	l.metrics.IOError(source)
	l.exec.record(err)
	l.handler.OnIOError(err)
}
