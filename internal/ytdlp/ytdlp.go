package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/reelhouse/reeld/pkg/logger"
)

var (
	downloadLogger = logger.Get("YtDlp")

	// yt-dlp emits progress lines such as
	//   [download]  42.1% of 12.34MiB at 1.23MiB/s ETA 00:05
	// when run with --newline. We only care about the percentage.
	progressPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
)

// ProgressCallback is invoked with the download completion percentage (0-100)
// each time yt-dlp reports progress.
type ProgressCallback func(percent float64)

// Downloader wraps the yt-dlp binary, fetching remote media to a local
// path while streaming progress back to the caller.
type Downloader struct {
	binaryPath string
}

func NewDownloader(binaryPath string) *Downloader {
	return &Downloader{binaryPath: binaryPath}
}

// Download fetches the media at the given URL to outputPath. The download is
// cancelled if the provided context expires. Progress reports are delivered
// via the onProgress callback (which may be nil).
func (downloader *Downloader) Download(ctx context.Context, url string, outputPath string, onProgress ProgressCallback) error {
	cmd := exec.CommandContext(
		ctx,
		downloader.binaryPath,
		"-f", "mp4",
		"--no-cache-dir",
		"--no-playlist",
		"--newline",
		"-o", outputPath,
		url,
	)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	// yt-dlp may spawn children (e.g. ffmpeg for remuxing) which inherit
	// the stdout pipe; without a wait delay, Wait would block until they
	// exit even after the context has cancelled yt-dlp itself.
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to yt-dlp stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		downloadLogger.Emit(logger.VERBOSE, "%s\n", line)

		if match := progressPattern.FindStringSubmatch(line); match != nil {
			if percent, err := strconv.ParseFloat(match[1], 64); err == nil && onProgress != nil {
				onProgress(percent)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fmt.Errorf("yt-dlp failed: %w: %s", err, tailOf(stderrBuf.String()))
	}

	return nil
}

// Version reports the installed yt-dlp version, used for health reporting.
func (downloader *Downloader) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, downloader.binaryPath, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query yt-dlp version: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// tailOf trims stderr output down to its final few lines, which is where
// yt-dlp places the actual cause of a failure.
func tailOf(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	return strings.Join(lines, " | ")
}
