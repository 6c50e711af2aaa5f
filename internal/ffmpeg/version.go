package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// BinaryVersion runs the given binary with '-version' and returns the first
// line of its output, e.g. "ffmpeg version 6.1.1 ...". Both ffmpeg and
// ffprobe report their versions this way.
func BinaryVersion(ctx context.Context, binaryPath string) (string, error) {
	out, err := exec.CommandContext(ctx, binaryPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query version of %s: %w", binaryPath, err)
	}

	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
