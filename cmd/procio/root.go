package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/dmora/procio"
	"github.com/dmora/procio/config"
	"github.com/dmora/procio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "procio",
	Short: "Run processes and stream their output",
	Long: `procio starts an external process, relays its standard output and
standard error line by line (or as raw bytes), forwards standard input,
and exits with the process's exit code.

Every flag can also be set through a PROCIO_ environment variable,
e.g. PROCIO_SHELL=bash or PROCIO_LOG_LEVEL=debug.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or an interrupt arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// flagKeys lists the persistent flags mirrored into viper.
var flagKeys = []string{"shell", "dir", "log-level", "log-dev", "buffer-size", "max-line-size", "encoding", "metrics"}

func init() {
	cobra.OnInitialize(initConfig)

	f := rootCmd.PersistentFlags()
	f.String("shell", "", "shell variant: powershell64, powershell32, cmd, sh, bash (default: platform shell)")
	f.String("dir", "", "working directory (default: the executable's directory)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.Bool("log-dev", false, "human-readable development logs")
	f.Int("buffer-size", procio.DefaultBufferSize, "binary read-chunk size in bytes")
	f.Int("max-line-size", procio.DefaultMaxLineSize, "maximum text line size in bytes (0: unlimited)")
	f.String("encoding", "utf-8", "output encoding: utf-8, windows-1252, iso-8859-1, ibm850, utf-16le, utf-16be")
	f.Bool("metrics", false, "print process metrics to stderr on exit")
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, f.Lookup(key))
	}
}

func initConfig() {
	viper.SetEnvPrefix(config.Prefix)
	// e.g. PROCIO_LOG_LEVEL for log-level
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// runtime bundles what every subcommand needs to start a process.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	reg     *prometheus.Registry
	dir     string
}

// newRuntime resolves PROCIO_* variables first, then explicit flags.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if viper.IsSet("shell") {
		cfg.Shell = viper.GetString("shell")
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("log-dev") {
		cfg.LogDev = viper.GetBool("log-dev")
	}
	if viper.IsSet("buffer-size") {
		cfg.BufferSize = viper.GetInt("buffer-size")
	}
	if viper.IsSet("max-line-size") {
		cfg.MaxLineSize = viper.GetInt("max-line-size")
	}
	if viper.IsSet("encoding") {
		cfg.Encoding = viper.GetString("encoding")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, dir: viper.GetString("dir")}
	if viper.GetBool("metrics") {
		rt.reg = prometheus.NewRegistry()
		rt.metrics = metrics.New(rt.reg)
	}
	return rt, nil
}

func (rt *runtime) options() []procio.Option {
	return append(rt.cfg.Options(rt.log), procio.WithMetrics(rt.metrics))
}

// close flushes logs and prints metrics when requested.
func (rt *runtime) close(w io.Writer) {
	_ = rt.log.Sync()
	if rt.reg == nil {
		return
	}
	families, err := rt.reg.Gather()
	if err != nil {
		fmt.Fprintln(w, "metrics:", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = m.GetHistogram().GetSampleSum()
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// detached keeps the command's values but not its cancellation, which wait
// turns into Terminate so the exit code is still observed.
func detached(cmd *cobra.Command) context.Context {
	return context.WithoutCancel(commandContext(cmd))
}

// wait blocks until e finishes, terminating the process if ctx ends first,
// and turns a non-zero exit code into an exitCodeError.
func wait(ctx context.Context, e *procio.Execution) error {
	stop := context.AfterFunc(ctx, func() { _ = e.Terminate() })
	defer stop()

	if err := e.Wait(); err != nil {
		return err
	}
	if code, ok := e.ExitCode(); ok && code != 0 {
		return exitCodeError(code)
	}
	return nil
}
