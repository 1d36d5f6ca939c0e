package procio

import (
	"github.com/dmora/procio/internal/stream"
	"github.com/dmora/procio/metrics"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// DefaultMaxLineSize is the default bound on one decoded text line. Zero
// means unlimited.
const DefaultMaxLineSize = stream.DefaultMaxLine

// StartOptions holds resolved configuration for Start.
type StartOptions struct {
	// Logger receives lifecycle events. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics records launch, exit, and stream counters. nil disables them.
	Metrics *metrics.Collector

	// FS is used to validate the executable path. Defaults to the OS
	// filesystem.
	FS afero.Fs

	// BufferSize is the binary read-chunk size, used when the handler does
	// not implement BufferSizer.
	BufferSize int

	// MaxLineSize bounds one decoded text line in bytes. Zero means no
	// limit. A longer line is dropped and reported through OnIOError once
	// the stream ends; draining continues.
	MaxLineSize int

	// Encoding decodes text-mode output. nil means UTF-8.
	Encoding encoding.Encoding
}

// Option configures a Start invocation.
type Option func(*StartOptions)

// ResolveOptions applies functional options over the defaults and returns
// the resolved config.
func ResolveOptions(opts ...Option) StartOptions {
	o := StartOptions{
		BufferSize:  DefaultBufferSize,
		MaxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}
	return o
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(o *StartOptions) {
		o.Logger = l
	}
}

// WithMetrics records launches, exits, and stream activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *StartOptions) {
		o.Metrics = c
	}
}

// WithFS sets the filesystem used to validate the executable path.
func WithFS(fs afero.Fs) Option {
	return func(o *StartOptions) {
		o.FS = fs
	}
}

// WithBufferSize sets the default binary read-chunk size.
// Values <= 0 are ignored.
func WithBufferSize(size int) Option {
	return func(o *StartOptions) {
		if size > 0 {
			o.BufferSize = size
		}
	}
}

// WithMaxLineSize caps the text line size in bytes.
// Values <= 0 are ignored.
func WithMaxLineSize(size int) Option {
	return func(o *StartOptions) {
		if size > 0 {
			o.MaxLineSize = size
		}
	}
}

// WithEncoding sets the character encoding of text-mode output, for
// example charmap.CodePage850 for cmd.exe.
func WithEncoding(enc encoding.Encoding) Option {
	return func(o *StartOptions) {
		o.Encoding = enc
	}
}

// bufferSize picks the handler's own chunk size when it provides one.
func (o StartOptions) bufferSize(h BinaryHandler) int {
	if s, ok := h.(BufferSizer); ok {
		if n := s.BufferSize(); n > 0 {
			return n
		}
	}
	return o.BufferSize
}
