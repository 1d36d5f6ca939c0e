package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmora/procio"
	"github.com/dmora/procio/filter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download a video with yt-dlp and report progress",
	Long: `download runs yt-dlp (or youtube-dl) in the download directory and
turns its "[download]" status lines into progress and ETA reports.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	f := downloadCmd.Flags()
	f.String("downloader", "", "downloader executable (default: yt-dlp, then youtube-dl)")
	f.String("format", "best", "format selector: best or worst")
	rootCmd.AddCommand(downloadCmd)
}

// downloadLine matches the status lines the downloader prints on stdout.
var downloadLine = regexp.MustCompile(`^\[download\]`)

const (
	destinationMarker = "Destination: "
	etaMarker         = "ETA "
)

// progress is one parsed "[download]   0.0% of 29.34MiB at 5.37KiB/s ETA 01:33" line.
type progress struct {
	Percent float64
	ETA     string
}

// downloadStatus accumulates what the downloader has reported so far.
type downloadStatus struct {
	Filename string
	Last     progress
}

// observe parses one status line. It reports whether the line carried
// progress; destination lines only update Filename.
func (s *downloadStatus) observe(line string) (progress, bool) {
	if i := strings.Index(line, destinationMarker); i >= 0 {
		s.Filename = strings.TrimSpace(line[i+len(destinationMarker):])
		return progress{}, false
	}
	pct := strings.Index(line, "%")
	if pct < 0 {
		return progress{}, false
	}
	start := strings.Index(line, "]") + 1
	if start > pct {
		return progress{}, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[start:pct]), 64)
	if err != nil {
		return progress{}, false
	}
	p := progress{Percent: v}
	if i := strings.Index(line, etaMarker); i >= 0 {
		p.ETA = strings.TrimSpace(line[i+len(etaMarker):])
	}
	s.Last = p
	return p, true
}

func runDownload(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "best" && format != "worst" {
		return fmt.Errorf("download: format must be best or worst, got %q", format)
	}
	bin, _ := cmd.Flags().GetString("downloader")
	path, err := downloaderPath(bin)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close(cmd.ErrOrStderr())

	dir := rt.dir
	if dir == "" {
		dir = "."
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}
	if err := afero.NewOsFs().MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("download: create directory: %w", err)
	}

	var status downloadStatus
	r := &relay{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), log: rt.log}
	h := r.handler()
	h.StdLine = func(_ procio.TextHandle, line string) {
		if p, ok := status.observe(line); ok {
			msg := fmt.Sprintf("progress: %.1f%%", p.Percent)
			if p.ETA != "" {
				msg += " eta: " + p.ETA
			}
			r.println(r.out, msg)
		}
	}
	h.ErrorLine = nil

	c := procio.Command{Path: path, Dir: dir, Args: []string{"-f", format, args[0]}}
	e, err := procio.Start(detached(cmd), c, filter.Regexp(h, downloadLine), rt.options()...)
	if err != nil {
		return err
	}
	if err := wait(commandContext(cmd), e); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if status.Filename != "" {
		r.println(r.out, "downloaded: "+filepath.Join(dir, status.Filename))
	}
	return nil
}

func downloaderPath(bin string) (string, error) {
	if bin != "" {
		return exec.LookPath(bin)
	}
	path, err := exec.LookPath("yt-dlp")
	if err == nil {
		return path, nil
	}
	return exec.LookPath("youtube-dl")
}
