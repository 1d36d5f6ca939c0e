package main

import (
	"os/exec"

	"github.com/dmora/procio"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <executable> [args...]",
	Short: "Start an executable directly and relay its output",
	Long: `run starts an executable without a shell. Standard input is forwarded
line by line; stdout and stderr are relayed as they arrive. The command
exits with the process's exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	r := &relay{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), in: cmd.InOrStdin(), log: rt.log}
	path, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}
	c := procio.Command{Path: path, Args: args[1:], Dir: rt.dir}

	start := procio.Start
	if c.Dir == "" {
		start = procio.StartInExecutableDir
	}
	e, err := start(detached(cmd), c, r.handler(), rt.options()...)
	if err != nil {
		return err
	}
	return wait(commandContext(cmd), e)
}
