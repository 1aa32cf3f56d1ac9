//go:build darwin

package screen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/captiocr/captiocr/internal/errors"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) grabRaw(ctx context.Context, region Rect) ([]byte, error) {
	tmpFile := filepath.Join(d.tempDir, "frame.png")
	area := fmt.Sprintf("%d,%d,%d,%d", region.X1, region.Y1, region.Width(), region.Height())
	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", "-R", area, tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeCaptureFailed,
			"screencapture failed: %s", stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "read screenshot")
	}
	os.Remove(tmpFile)
	return data, nil
}

func (d *darwinBackend) cleanup() {}

// New creates a platform-specific region grabber
func New() Grabber {
	tmpDir, err := os.MkdirTemp("", "captiocr-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir)
}
