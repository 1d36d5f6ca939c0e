package main

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/dmora/procio"
	"go.uber.org/zap"
)

// relay copies a process's lines to the command's writers and, when in is
// set, forwards input lines to the process.
type relay struct {
	mu     sync.Mutex // stdout and stderr workers share out and errOut
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	log    *zap.Logger
}

func (r *relay) handler() *procio.TextFuncs {
	return &procio.TextFuncs{
		Initialized: func(h procio.TextHandle) {
			if r.in != nil {
				go r.forward(h)
			}
		},
		StdLine: func(_ procio.TextHandle, line string) {
			r.println(r.out, line)
		},
		ErrorLine: func(_ procio.TextHandle, line string) {
			r.println(r.errOut, line)
		},
		IOError: func(err error) {
			r.log.Warn("process i/o error", zap.Error(err))
		},
	}
}

func (r *relay) println(w io.Writer, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(w, line)
}

// forward stops at end of input or at the first failed write, which
// happens once the process has exited.
func (r *relay) forward(h procio.TextHandle) {
	sc := bufio.NewScanner(r.in)
	for sc.Scan() {
		if err := h.WriteLine(sc.Text()); err != nil {
			r.log.Debug("stdin forwarding stopped", zap.Error(err))
			return
		}
	}
}
