//go:build windows

package screen

import (
	"context"
	"log/slog"
	"os"

	"github.com/captiocr/captiocr/internal/errors"
)

type windowsBackend struct{ tempDir string }

func (w *windowsBackend) grabRaw(ctx context.Context, region Rect) ([]byte, error) {
	// TODO: Implement using Windows GDI or DXGI
	slog.Warn("Windows screen capture not yet implemented")
	return nil, errors.New(errors.CodeCaptureFailed, "windows capture not implemented")
}

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific region grabber
func New() Grabber {
	tmpDir, err := os.MkdirTemp("", "captiocr-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
