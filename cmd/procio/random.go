package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/dmora/procio"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random <bytes>",
	Short: "Read random bytes from openssl rand",
	Long: `random runs "openssl rand <bytes>" with a binary handler and prints the
bytes it produced, hex-encoded unless --raw is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRandom,
}

func init() {
	randomCmd.Flags().String("openssl", "openssl", "openssl executable")
	randomCmd.Flags().Bool("raw", false, "write the bytes unencoded")
	rootCmd.AddCommand(randomCmd)
}

func runRandom(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return fmt.Errorf("random: byte count must be a positive integer, got %q", args[0])
	}
	bin, _ := cmd.Flags().GetString("openssl")
	raw, _ := cmd.Flags().GetBool("raw")

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	path, err := exec.LookPath(bin)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	out.Grow(n)
	h := &procio.BinaryFuncs{
		StdBytes: func(_ procio.BinaryHandle, n int, buf []byte) {
			out.Write(buf[:n])
		},
	}
	c := procio.Command{Path: path, Args: []string{"rand", strconv.Itoa(n)}}
	e, err := procio.StartInExecutableDir(detached(cmd), c, h, rt.options()...)
	if err != nil {
		return err
	}
	if err := wait(commandContext(cmd), e); err != nil {
		return fmt.Errorf("random: %w", err)
	}
	if out.Len() != n {
		return fmt.Errorf("random: read %d of %d bytes", out.Len(), n)
	}

	if raw {
		_, err = cmd.OutOrStdout().Write(out.Bytes())
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out.Bytes()))
	return err
}
