package fetch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// commandContext is swapped out by tests.
var commandContext = exec.CommandContext

// mux remuxes separately fetched video and audio streams into one container
// without re-encoding.
func (d *Downloader) mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
	}
	if strings.HasSuffix(outputPath, ".mp4") {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, outputPath)

	cmd := commandContext(ctx, d.ffmpegBinary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		if detail == "" {
			return fmt.Errorf("ffmpeg mux failed: %w", err)
		}
		return fmt.Errorf("ffmpeg mux failed: %w: %s", err, detail)
	}
	return nil
}
