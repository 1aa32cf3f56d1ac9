package screen

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"

	"github.com/captiocr/captiocr/internal/errors"
)

// Grabber captures a screen region as a decoded image.
type Grabber interface {
	Grab(ctx context.Context, region Rect) (image.Image, error)
	Close()
}

// backend implements platform-specific raw capture, returning PNG bytes.
type backend interface {
	grabRaw(ctx context.Context, region Rect) ([]byte, error)
	cleanup()
}

// baseGrabber wraps a backend with PNG decoding and temp-dir lifecycle.
type baseGrabber struct {
	backend
	tempDir string
}

func newBase(b backend, tempDir string) *baseGrabber {
	return &baseGrabber{backend: b, tempDir: tempDir}
}

func (g *baseGrabber) Grab(ctx context.Context, region Rect) (image.Image, error) {
	region = region.Normalize()
	if err := region.Validate(); err != nil {
		return nil, err
	}
	data, err := g.grabRaw(ctx, region)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "decode screenshot")
	}
	return img, nil
}

func (g *baseGrabber) Close() {
	g.cleanup()
	if g.tempDir != "" {
		os.RemoveAll(g.tempDir)
	}
}

// Validator checks that a capture region is still reachable. The capture
// loop probes it periodically so a disconnected or resized display is
// noticed instead of silently producing empty frames.
type Validator interface {
	Validate(ctx context.Context, region Rect) error
}

// GrabValidator validates a region by performing a probe capture.
type GrabValidator struct {
	grabber Grabber
}

func NewGrabValidator(g Grabber) *GrabValidator {
	return &GrabValidator{grabber: g}
}

func (v *GrabValidator) Validate(ctx context.Context, region Rect) error {
	img, err := v.grabber.Grab(ctx, region)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	if bounds.Dx() < MinDimension || bounds.Dy() < MinDimension {
		return errors.Newf(errors.CodeAreaInvalid,
			"probe capture returned %dx%d, region may be off screen", bounds.Dx(), bounds.Dy())
	}
	return nil
}
