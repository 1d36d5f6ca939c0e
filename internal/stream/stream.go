// Package stream implements the stream workers that drain one process
// output stream each: a line-oriented text worker and a fixed-chunk binary
// worker.
//
// Workers return nil on end-of-stream and on interruption (their context
// ending between reads); any other read or decode failure is returned once
// and the worker stops. An overlong text line is the exception: it is
// reported only after the stream has been drained. A blocked read is only released by end-of-stream
// or by the caller closing the reader.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxLine is the default bound on a single decoded line. Zero means
// lines may grow without limit.
const DefaultMaxLine = 0

// ErrLineTooLong is returned, once the stream has been drained, when some
// line exceeded Text.MaxLine.
var ErrLineTooLong = errors.New("stream: line exceeds maximum size")

const readChunk = 32 * 1024

// Text reads R as decoded text and calls OnLine for every complete line, in
// arrival order, with the line terminator stripped. A line ends at "\n",
// "\r\n" or a lone "\r", so carriage-return progress updates arrive as
// separate lines as soon as they are written.
type Text struct {
	R io.Reader

	// Encoding decodes R into UTF-8. nil means UTF-8 with invalid sequences
	// replaced by U+FFFD.
	Encoding encoding.Encoding

	// MaxLine bounds one line in bytes after decoding. <= 0 means no limit.
	// A longer line is dropped; the stream is still drained to its end and
	// Run then returns ErrLineTooLong.
	MaxLine int

	OnLine func(line string)
}

// Run drains the stream. It is meant to be called on its own goroutine.
func (t Text) Run(ctx context.Context) error {
	enc := t.Encoding
	if enc == nil {
		enc = unicode.UTF8
	}
	r := transform.NewReader(t.R, enc.NewDecoder())

	var (
		buf      = make([]byte, readChunk)
		line     []byte
		overlong bool // the current line was dropped
		tooLong  bool // some line was dropped
		skipLF   bool // the previous chunk ended in "\r"
	)
	// emit delivers the pending line and reports whether to keep going.
	emit := func() bool {
		if ctx.Err() != nil {
			return false
		}
		if !overlong {
			t.OnLine(string(line))
		}
		line, overlong = line[:0], false
		return true
	}
	appendPart := func(p []byte) {
		if overlong {
			return
		}
		if t.MaxLine > 0 && len(line)+len(p) > t.MaxLine {
			line, overlong, tooLong = line[:0], true, true
			return
		}
		line = append(line, p...)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Read(buf)
		p := buf[:n]
		if skipLF && len(p) > 0 {
			if p[0] == '\n' {
				p = p[1:]
			}
			skipLF = false
		}
		for len(p) > 0 {
			i := bytes.IndexAny(p, "\r\n")
			if i < 0 {
				appendPart(p)
				break
			}
			appendPart(p[:i])
			if !emit() {
				return nil
			}
			if p[i] == '\r' {
				switch {
				case i+1 == len(p):
					skipLF = true
				case p[i+1] == '\n':
					i++
				}
			}
			p = p[i+1:]
		}

		if errors.Is(err, io.EOF) {
			if (len(line) > 0 || overlong) && !emit() {
				return nil
			}
			if tooLong {
				return ErrLineTooLong
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Binary reads R into one reusable buffer of Size bytes and calls OnChunk
// with the number of bytes read and the buffer. The buffer is overwritten by
// the next read, so OnChunk must copy buf[:n] if it keeps the data.
type Binary struct {
	R       io.Reader
	Size    int
	OnChunk func(n int, buf []byte)
}

// Run drains the stream. It is meant to be called on its own goroutine.
func (b Binary) Run(ctx context.Context) error {
	if b.Size <= 0 {
		return errors.New("stream: buffer size must be positive")
	}
	buf := make([]byte, b.Size)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := b.R.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				return nil
			}
			b.OnChunk(n, buf)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
