package main

import (
	"strings"

	"github.com/dmora/procio"
	"github.com/dmora/procio/shell"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run a command through the configured shell",
	Long: `exec runs a command through a system shell (see --shell) and relays
its output. On sh and bash the command and its arguments are joined into
one string; quoting is left to the caller.`,
	Example: `  procio exec echo hello
  procio --shell bash exec 'ls -l | wc -l'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the current user as reported by the shell",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd, whoamiCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	v, err := rt.cfg.ShellVariant()
	if err != nil {
		return err
	}
	r := &relay{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), in: cmd.InOrStdin(), log: rt.log}
	e, err := shell.ExecuteIn(detached(cmd), v, rt.dir, args[0], args[1:], r.handler(), rt.options()...)
	if err != nil {
		return err
	}
	return wait(commandContext(cmd), e)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	v, err := rt.cfg.ShellVariant()
	if err != nil {
		return err
	}
	var names []string
	r := &relay{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), log: rt.log}
	h := r.handler()
	h.StdLine = func(_ procio.TextHandle, line string) {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	e, err := shell.ExecuteIn(detached(cmd), v, rt.dir, "whoami", nil, h, rt.options()...)
	if err != nil {
		return err
	}
	if err := wait(commandContext(cmd), e); err != nil {
		return err
	}
	for _, name := range names {
		r.println(r.out, "username: "+name)
	}
	return nil
}
