// Command procio launches processes and shell commands through the procio
// engine and relays their output.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var exit exitCodeError
		if errors.As(err, &exit) {
			os.Exit(int(exit))
		}
		fmt.Fprintln(os.Stderr, "procio:", err)
		os.Exit(1)
	}
}

// exitCodeError carries a child's non-zero exit code out of a command.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}
