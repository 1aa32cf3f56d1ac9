package screen

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/captiocr/captiocr/internal/errors"
)

func TestRectValidate(t *testing.T) {
	tests := []struct {
		name    string
		rect    Rect
		wantErr bool
	}{
		{"valid", Rect{0, 0, 800, 200}, false},
		{"exactly minimum", Rect{10, 10, 80, 80}, false},
		{"too narrow", Rect{0, 0, 69, 200}, true},
		{"too short", Rect{0, 0, 800, 50}, true},
		{"zero", Rect{}, true},
		{"inverted corners still valid", Rect{800, 200, 0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rect.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsCode(err, errors.CodeAreaInvalid) {
				t.Errorf("expected AREA_INVALID, got %v", err)
			}
		})
	}
}

func TestRectNormalize(t *testing.T) {
	r := Rect{X1: 500, Y1: 300, X2: 100, Y2: 50}.Normalize()
	if r.X1 != 100 || r.Y1 != 50 || r.X2 != 500 || r.Y2 != 300 {
		t.Errorf("Normalize() = %+v", r)
	}
	if r.Width() != 400 || r.Height() != 250 {
		t.Errorf("dims = %dx%d", r.Width(), r.Height())
	}
}

// fakeBackend serves canned PNG bytes without touching the display.
type fakeBackend struct {
	data []byte
	err  error
}

func (f *fakeBackend) grabRaw(_ context.Context, _ Rect) ([]byte, error) { return f.data, f.err }
func (f *fakeBackend) cleanup()                                          {}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBaseGrabberDecodes(t *testing.T) {
	g := newBase(&fakeBackend{data: encodePNG(t, 200, 100)}, "")
	img, err := g.Grab(context.Background(), Rect{0, 0, 200, 100})
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestBaseGrabberRejectsTinyRegion(t *testing.T) {
	g := newBase(&fakeBackend{data: encodePNG(t, 200, 100)}, "")
	_, err := g.Grab(context.Background(), Rect{0, 0, 10, 10})
	if !errors.IsCode(err, errors.CodeAreaInvalid) {
		t.Errorf("expected AREA_INVALID, got %v", err)
	}
}

func TestBaseGrabberDecodeFailure(t *testing.T) {
	g := newBase(&fakeBackend{data: []byte("not a png")}, "")
	_, err := g.Grab(context.Background(), Rect{0, 0, 800, 200})
	if !errors.IsCode(err, errors.CodeCaptureFailed) {
		t.Errorf("expected CAPTURE_FAILED, got %v", err)
	}
}

func TestGrabValidator(t *testing.T) {
	ok := NewGrabValidator(newBase(&fakeBackend{data: encodePNG(t, 200, 100)}, ""))
	if err := ok.Validate(context.Background(), Rect{0, 0, 800, 200}); err != nil {
		t.Errorf("Validate: %v", err)
	}

	small := NewGrabValidator(newBase(&fakeBackend{data: encodePNG(t, 30, 30)}, ""))
	err := small.Validate(context.Background(), Rect{0, 0, 800, 200})
	if !errors.IsCode(err, errors.CodeAreaInvalid) {
		t.Errorf("expected AREA_INVALID for undersized probe, got %v", err)
	}

	failing := NewGrabValidator(newBase(&fakeBackend{err: errors.New(errors.CodeCaptureFailed, "boom")}, ""))
	if err := failing.Validate(context.Background(), Rect{0, 0, 800, 200}); err == nil {
		t.Error("expected error from failing backend")
	}
}
