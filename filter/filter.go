// Package filter provides composable middleware for procio text handlers.
// Each function wraps a [procio.TextHandler] and forwards only the lines it
// accepts; lifecycle callbacks always pass through unchanged.
package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/dmora/procio"
)

// Predicate decides whether a line read from stream is forwarded.
type Predicate func(stream procio.Stream, line string) bool

// Lines returns a handler that forwards lines accepted by accept to h.
// A nil accept forwards everything.
func Lines(h procio.TextHandler, accept Predicate) procio.TextHandler {
	if accept == nil {
		return h
	}
	return &lines{next: h, accept: accept}
}

// Prefix forwards only lines starting with prefix.
func Prefix(h procio.TextHandler, prefix string) procio.TextHandler {
	return Lines(h, func(_ procio.Stream, line string) bool {
		return strings.HasPrefix(line, prefix)
	})
}

// Regexp forwards only lines matching re.
func Regexp(h procio.TextHandler, re *regexp.Regexp) procio.TextHandler {
	return Lines(h, func(_ procio.Stream, line string) bool {
		return re.MatchString(line)
	})
}

// NonEmpty drops blank lines.
func NonEmpty(h procio.TextHandler) procio.TextHandler {
	return Lines(h, func(_ procio.Stream, line string) bool {
		return !IsBlank(line)
	})
}

// DropStderr discards every standard-error line.
func DropStderr(h procio.TextHandler) procio.TextHandler {
	return Lines(h, func(s procio.Stream, _ string) bool {
		return s != procio.Stderr
	})
}

// IsBlank reports whether line holds only whitespace. Windows programs
// leave a trailing "\r" once "\n" is stripped, so that counts as blank.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

type lines struct {
	next   procio.TextHandler
	accept Predicate
}

func (l *lines) OnInitialized(h procio.TextHandle) { l.next.OnInitialized(h) }

func (l *lines) OnStdLine(h procio.TextHandle, line string) {
	if l.accept(procio.Stdout, line) {
		l.next.OnStdLine(h, line)
	}
}

func (l *lines) OnErrorLine(h procio.TextHandle, line string) {
	if l.accept(procio.Stderr, line) {
		l.next.OnErrorLine(h, line)
	}
}

func (l *lines) OnProcessExited(exitCode int) { l.next.OnProcessExited(exitCode) }

func (l *lines) OnIOError(err error) { l.next.OnIOError(err) }

// Line is one line of output tagged with its stream.
type Line struct {
	Stream procio.Stream
	Text   string
}

// Tee returns a handler that sends every line to out before forwarding it
// to h. A send blocks the stream worker until out is received from; once
// ctx is cancelled lines are no longer sent. out is never closed.
func Tee(ctx context.Context, h procio.TextHandler, out chan<- Line) procio.TextHandler {
	return Lines(h, func(s procio.Stream, line string) bool {
		trySend(ctx, out, Line{Stream: s, Text: line})
		return true
	})
}

// trySend sends l on out, returning true on success.
// Returns false if ctx is cancelled before the send completes.
func trySend(ctx context.Context, out chan<- Line, l Line) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- l:
		return true
	case <-ctx.Done():
		return false
	}
}
