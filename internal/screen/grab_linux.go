//go:build linux

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

type linuxBackend struct{ tempDir string }

func (l *linuxBackend) grabRaw(ctx context.Context, region Rect) ([]byte, error) {
	tmpFile := filepath.Join(l.tempDir, "frame.png")
	// Try grim first (wayland), fall back to scrot (x11)
	var cmd *exec.Cmd
	if _, err := exec.LookPath("grim"); err == nil {
		geom := fmt.Sprintf("%d,%d %dx%d", region.X1, region.Y1, region.Width(), region.Height())
		cmd = exec.CommandContext(ctx, "grim", "-g", geom, tmpFile)
	} else if _, err := exec.LookPath("scrot"); err == nil {
		area := fmt.Sprintf("%d,%d,%d,%d", region.X1, region.Y1, region.Width(), region.Height())
		cmd = exec.CommandContext(ctx, "scrot", "-o", "-a", area, tmpFile)
	} else {
		return nil, errors.New(errors.CodeCaptureFailed,
			"no screenshot tool found (install grim or scrot)")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeCaptureFailed,
			"screenshot failed: %s", stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "read screenshot")
	}
	os.Remove(tmpFile)
	return data, nil
}

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific region grabber
func New() Grabber {
	tmpDir, err := os.MkdirTemp("", "captiocr-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir}, tmpDir)
}
