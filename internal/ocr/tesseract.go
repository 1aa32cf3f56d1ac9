// Package ocr runs text recognition on captured frames through a local
// tesseract binary.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/captiocr/captiocr/internal/errors"
)

// Mode selects the page segmentation strategy.
type Mode string

const (
	// ModeCaption uses fully automatic segmentation, which copes better
	// with the sparse layout of caption overlays.
	ModeCaption Mode = "caption"
	// ModeGeneral assumes a single uniform block of text.
	ModeGeneral Mode = "general"
)

func (m Mode) psm() string {
	if m == ModeCaption {
		return "3"
	}
	return "6"
}

// Tesseract recognizes text by invoking the tesseract CLI with the image
// streamed over stdin.
type Tesseract struct {
	binary      string
	language    string
	tessdataDir string
	mode        Mode
}

// Option configures a Tesseract instance.
type Option func(*Tesseract)

func WithLanguage(lang string) Option {
	return func(t *Tesseract) {
		if lang != "" {
			t.language = lang
		}
	}
}

func WithTessdataDir(dir string) Option {
	return func(t *Tesseract) { t.tessdataDir = dir }
}

func WithMode(m Mode) Option {
	return func(t *Tesseract) {
		if m == ModeCaption || m == ModeGeneral {
			t.mode = m
		}
	}
}

// NewTesseract creates an adapter around the given binary. An empty binary
// name falls back to "tesseract" on PATH.
func NewTesseract(binary string, opts ...Option) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	t := &Tesseract{
		binary:   binary,
		language: "eng",
		mode:     ModeCaption,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Available probes the binary so a missing installation surfaces at
// startup instead of on the first frame.
func (t *Tesseract) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, t.binary, "--version")
	cmd.Env = t.environ()
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, errors.CodeOCRUnavailable,
			"tesseract binary %q not usable: %s", t.binary, firstLine(out))
	}
	return nil
}

// Recognize extracts text from the image. Empty output is not an error;
// a silent frame simply has no captions.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return "", errors.Wrap(err, errors.CodeOCRFailed, "encode frame")
	}

	cmd := exec.CommandContext(ctx, t.binary, t.args()...)
	cmd.Env = t.environ()
	cmd.Stdin = &input
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, errors.CodeOCRFailed,
			"tesseract failed: %s", firstLine(stderr.Bytes()))
	}
	return stdout.String(), nil
}

func (t *Tesseract) args() []string {
	return []string{"stdin", "stdout", "-l", t.language, "--oem", "1", "--psm", t.mode.psm()}
}

func (t *Tesseract) environ() []string {
	env := os.Environ()
	if t.tessdataDir != "" {
		env = append(env, fmt.Sprintf("TESSDATA_PREFIX=%s", t.tessdataDir))
	}
	return env
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
