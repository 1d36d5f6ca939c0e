//go:build !windows

package procio

import (
	"os"
	"syscall"
)

var terminateSignal os.Signal = syscall.SIGTERM

// exitCode returns the process exit status, or 128+signal for a process
// terminated by a signal. A nil state (wait failed) yields -1.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
