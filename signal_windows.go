//go:build windows

package procio

import "os"

// Windows has no termination request that a console process can handle,
// so a graceful stop is a kill.
var terminateSignal os.Signal = os.Kill

// exitCode returns the process exit status. A nil state (wait failed)
// yields -1.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
