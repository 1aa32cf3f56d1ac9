package orchestrator

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/captiocr/captiocr/internal/catalog"
	"github.com/captiocr/captiocr/internal/config"
	"github.com/captiocr/captiocr/internal/errors"
	"github.com/captiocr/captiocr/internal/screen"
	"github.com/captiocr/captiocr/internal/transcript"
)

type stubGrabber struct{}

func (stubGrabber) Grab(context.Context, screen.Rect) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}
func (stubGrabber) Close() {}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.CapturesDir = dir
	cfg.Storage.CatalogPath = filepath.Join(dir, "catalog.sqlite")

	store, err := catalog.Open(cfg.Storage.CatalogPath)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewWithGrabber(cfg, store, stubGrabber{})
}

func writeRawFixture(t *testing.T, dir string) string {
	t.Helper()
	rawPath := filepath.Join(dir, "capture_20260310_100000_raw.txt")
	w, err := transcript.NewWriter(rawPath, transcript.Header{
		Started:  time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Language: "eng",
	})
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	for i, text := range []string{
		"hello everyone welcome to the meeting",
		"hello everyone welcome to the meeting",
		"totally different subject matter being discussed",
		"totally different subject matter being discussed",
	} {
		if err := w.Append(at.Add(time.Duration(i)*3*time.Second), text); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return rawPath
}

func TestProcessedPath(t *testing.T) {
	if got := processedPath("/x/capture_20260310_100000_raw.txt"); got != "/x/capture_20260310_100000_processed.txt" {
		t.Errorf("processedPath = %q", got)
	}
	if got := processedPath("/x/notes.txt"); got != "/x/notes.txt.processed" {
		t.Errorf("processedPath fallback = %q", got)
	}
}

func TestStartCaptureOCRUnavailable(t *testing.T) {
	m := newTestManager(t)
	m.cfg.OCR.Binary = filepath.Join(t.TempDir(), "no-such-tesseract")

	_, err := m.StartCapture(context.Background(), StartOptions{
		Region: screen.Rect{X1: 0, Y1: 0, X2: 800, Y2: 200},
	})
	if !errors.IsCode(err, errors.CodeOCRUnavailable) {
		t.Errorf("StartCapture = %v, want OCR_UNAVAILABLE", err)
	}
}

func TestStopCaptureWithoutSession(t *testing.T) {
	m := newTestManager(t)
	_, err := m.StopCapture(context.Background())
	if !errors.IsCode(err, errors.CodeNotRunning) {
		t.Errorf("StopCapture = %v, want NOT_RUNNING", err)
	}
}

func TestProcessFile(t *testing.T) {
	m := newTestManager(t)
	rawPath := writeRawFixture(t, t.TempDir())

	diag, err := m.ProcessFile(rawPath)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if diag.Emitted != 2 {
		t.Errorf("Emitted = %d, want 2", diag.Emitted)
	}
	if _, err := os.Stat(processedPath(rawPath)); err != nil {
		t.Errorf("processed file missing: %v", err)
	}
}

func TestProcessSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rawPath := writeRawFixture(t, t.TempDir())

	sess := catalog.Session{ID: "sess-1", StartedAt: time.Now(), Language: "eng", RawPath: rawPath}
	if err := m.store.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if err := m.store.End(ctx, "sess-1", catalog.StatusStopped, 4); err != nil {
		t.Fatal(err)
	}

	diag, err := m.ProcessSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}
	if diag.Emitted != 2 {
		t.Errorf("Emitted = %d, want 2", diag.Emitted)
	}

	got, err := m.store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != catalog.StatusProcessed || got.ProcessedChunks != 2 {
		t.Errorf("catalog row after processing: %+v", got)
	}
}

func TestProcessSessionStillActive(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	sess := catalog.Session{ID: "sess-2", StartedAt: time.Now(), Language: "eng", RawPath: "/r.txt"}
	if err := m.store.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}

	_, err := m.ProcessSession(ctx, "sess-2")
	if !errors.IsCode(err, errors.CodeAlreadyRunning) {
		t.Errorf("ProcessSession = %v, want ALREADY_RUNNING", err)
	}
}

func TestProcessSessionMissing(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ProcessSession(context.Background(), "ghost")
	if err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestDisconnectClosesCatalogRow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	sess := catalog.Session{ID: "sess-3", StartedAt: time.Now(), Language: "eng", RawPath: "/r.txt"}
	if err := m.store.Create(ctx, sess); err != nil {
		t.Fatal(err)
	}

	m.Status("sess-3", "disconnected")

	got, err := m.store.Get(ctx, "sess-3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != catalog.StatusDisconnected {
		t.Errorf("status = %q, want disconnected", got.Status)
	}

	select {
	case ev := <-m.Events():
		if ev.Kind != EventStatus || ev.Text != "disconnected" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Error("no status event emitted")
	}
}

func TestEmitNeverBlocks(t *testing.T) {
	m := newTestManager(t)
	// Fill the buffer past capacity with no consumer; emit must not stall.
	for i := 0; i < eventBuffer+10; i++ {
		m.TextCaptured("sess", "line")
	}
}

func TestRecentSessions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		sess := catalog.Session{ID: id, StartedAt: time.Now(), Language: "eng", RawPath: "/r.txt"}
		if err := m.store.Create(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}
	sessions, err := m.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("len = %d, want 2", len(sessions))
	}
}
