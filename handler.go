package procio

// Stream identifies one of a process's output streams.
type Stream int

const (
	// Stdout is the process's standard output.
	Stdout Stream = iota + 1
	// Stderr is the process's standard error.
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// DefaultBufferSize is the read-chunk size used for binary handlers that do
// not choose their own.
const DefaultBufferSize = 2048

// Handler is the lifecycle contract shared by both handler variants.
// Start accepts a Handler and dispatches on whether it is a [TextHandler]
// or a [BinaryHandler]; a value implementing neither is rejected.
//
// Callbacks arrive on engine goroutines. Stdout and stderr callbacks come
// from different goroutines and may run concurrently with each other and
// with OnProcessExited.
type Handler interface {
	// OnProcessExited is called exactly once with the exit code after the
	// process has exited. Standard input is closed right after it returns.
	// Trailing output may still be delivered after this call.
	OnProcessExited(exitCode int)

	// OnIOError reports a launch failure, a stream read failure, a failure
	// to close standard input, or an interrupted exit wait.
	OnIOError(err error)
}

// TextHandler receives process output as decoded lines.
type TextHandler interface {
	Handler

	// OnInitialized is called synchronously from Start, before any output
	// is read. The handle may be written to or stopped immediately and may
	// be retained for use from other goroutines.
	OnInitialized(h TextHandle)

	// OnStdLine is called for each stdout line, terminator stripped.
	OnStdLine(h TextHandle, line string)

	// OnErrorLine is called for each stderr line, terminator stripped.
	OnErrorLine(h TextHandle, line string)
}

// BinaryHandler receives process output as raw byte chunks.
//
// The buf passed to OnStdBytes and OnErrorBytes is reused for every read
// on that stream. Only buf[:n] is valid, and only until the callback
// returns; copy it out to keep it.
type BinaryHandler interface {
	Handler

	// OnInitialized is called synchronously from Start, before any output
	// is read.
	OnInitialized(h BinaryHandle)

	// OnStdBytes is called for each successful stdout read of n > 0 bytes.
	OnStdBytes(h BinaryHandle, n int, buf []byte)

	// OnErrorBytes is called for each successful stderr read of n > 0 bytes.
	OnErrorBytes(h BinaryHandle, n int, buf []byte)
}

// BufferSizer is an optional BinaryHandler capability selecting the
// read-chunk size. Values <= 0 fall back to the configured default.
type BufferSizer interface {
	BufferSize() int
}

// DeliverStdLines forwards each line to h.OnStdLine, in order.
func DeliverStdLines(h TextHandler, handle TextHandle, lines []string) {
	for _, line := range lines {
		h.OnStdLine(handle, line)
	}
}

// DeliverErrorLines forwards each line to h.OnErrorLine, in order.
func DeliverErrorLines(h TextHandler, handle TextHandle, lines []string) {
	for _, line := range lines {
		h.OnErrorLine(handle, line)
	}
}
