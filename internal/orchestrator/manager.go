// Package orchestrator coordinates capture sessions, post-processing, and
// the session catalog behind one API surface.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/captiocr/captiocr/internal/capture"
	"github.com/captiocr/captiocr/internal/catalog"
	"github.com/captiocr/captiocr/internal/config"
	"github.com/captiocr/captiocr/internal/errors"
	"github.com/captiocr/captiocr/internal/ocr"
	"github.com/captiocr/captiocr/internal/pipeline"
	"github.com/captiocr/captiocr/internal/screen"
	"github.com/captiocr/captiocr/internal/transcript"
)

const eventBuffer = 100

// EventKind distinguishes session events.
type EventKind string

const (
	EventText   EventKind = "text"
	EventStatus EventKind = "status"
)

// Event is a one-way notification surfaced to subscribers (the websocket
// layer). Session state never flows back through it.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// StartOptions selects what a new session captures.
type StartOptions struct {
	Region      screen.Rect
	Language    string
	CaptionMode bool
}

// Manager owns the capture loop, the OCR adapter, and the catalog. One
// capture session runs at a time.
type Manager struct {
	cfg     *config.Config
	store   *catalog.Store
	grabber screen.Grabber
	events  chan Event

	// mu serializes session lifecycle transitions and guards loop, which
	// is replaced on every StartCapture. HTTP handlers call these
	// concurrently.
	mu   sync.Mutex
	loop *capture.Loop
}

// New wires a manager around the platform grabber.
func New(cfg *config.Config, store *catalog.Store) *Manager {
	return NewWithGrabber(cfg, store, screen.New())
}

// NewWithGrabber is New with an injected grabber, used by tests.
func NewWithGrabber(cfg *config.Config, store *catalog.Store, grabber screen.Grabber) *Manager {
	return &Manager{
		cfg:     cfg,
		store:   store,
		grabber: grabber,
		events:  make(chan Event, eventBuffer),
	}
}

// Events returns the notification stream. Slow consumers lose events
// rather than stalling the capture loop.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// StartCapture probes the OCR engine, registers the session in the
// catalog, and starts the loop.
func (m *Manager) StartCapture(ctx context.Context, opts StartOptions) (capture.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop != nil && m.loop.State() == capture.StateRunning {
		return capture.Session{}, errors.New(errors.CodeAlreadyRunning, "capture session already active")
	}
	if err := opts.Region.Validate(); err != nil {
		return capture.Session{}, err
	}
	if opts.Language == "" {
		opts.Language = m.cfg.OCR.Language
	}

	mode := ocr.ModeGeneral
	if opts.CaptionMode {
		mode = ocr.ModeCaption
	}
	recognizer := ocr.NewTesseract(m.cfg.OCR.Binary,
		ocr.WithLanguage(opts.Language),
		ocr.WithTessdataDir(m.cfg.OCR.TessdataDir),
		ocr.WithMode(mode))
	if err := recognizer.Available(ctx); err != nil {
		return capture.Session{}, err
	}

	m.loop = capture.NewLoop(m.cfg.Capture, m.cfg.Storage.CapturesDir,
		m.grabber, recognizer, screen.NewGrabValidator(m.grabber), m)

	sess, err := m.loop.Start(ctx, capture.Options{
		Region:      opts.Region,
		Language:    opts.Language,
		CaptionMode: opts.CaptionMode,
	})
	if err != nil {
		return capture.Session{}, err
	}

	if err := m.store.Create(ctx, catalog.Session{
		ID:          sess.ID,
		StartedAt:   sess.StartedAt,
		Language:    opts.Language,
		CaptionMode: opts.CaptionMode,
		RawPath:     sess.RawPath,
	}); err != nil {
		// The session still runs; the catalog just lost a row.
		slog.Error("failed to register session", "error", err, "session", sess.ID)
	}
	return sess, nil
}

// StopCapture ends the active session and records its final block count.
func (m *Manager) StopCapture(ctx context.Context) (capture.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop == nil {
		return capture.Session{}, errors.New(errors.CodeNotRunning, "no capture session")
	}
	rawPath, err := m.loop.Stop(ctx)
	if err != nil {
		return capture.Session{}, err
	}
	sess := m.loop.Session()

	blocks := countBlocks(rawPath)
	if err := m.store.End(ctx, sess.ID, catalog.StatusStopped, blocks); err != nil {
		slog.Error("failed to close session record", "error", err, "session", sess.ID)
	}
	return sess, nil
}

// ProcessSession runs the batch pipeline over a finished session's raw
// transcript and records the outcome.
func (m *Manager) ProcessSession(ctx context.Context, sessionID string) (pipeline.Diagnostics, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return pipeline.Diagnostics{}, err
	}
	if sess == nil {
		return pipeline.Diagnostics{}, errors.Newf(errors.CodeStorageFailed, "session %s not found", sessionID)
	}
	if sess.Status == catalog.StatusActive {
		return pipeline.Diagnostics{}, errors.New(errors.CodeAlreadyRunning, "session still capturing")
	}

	outPath := processedPath(sess.RawPath)
	diag, err := m.runPipeline(sess.RawPath, outPath)
	if err != nil {
		return diag, err
	}
	if diag.Emitted > 0 {
		if err := m.store.MarkProcessed(ctx, sessionID, outPath, diag.Emitted); err != nil {
			return diag, err
		}
	}
	return diag, nil
}

// ProcessFile runs the pipeline over an arbitrary raw transcript, outside
// the catalog. Useful for re-processing old captures.
func (m *Manager) ProcessFile(rawPath string) (pipeline.Diagnostics, error) {
	return m.runPipeline(rawPath, processedPath(rawPath))
}

// RecentSessions lists the newest catalog entries.
func (m *Manager) RecentSessions(ctx context.Context, limit int) ([]catalog.Session, error) {
	return m.store.Recent(ctx, limit)
}

// Close releases platform resources; an active session is stopped first.
func (m *Manager) Close() {
	m.mu.Lock()
	loop := m.loop
	m.mu.Unlock()

	if loop != nil && loop.State() == capture.StateRunning {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := m.StopCapture(ctx); err != nil {
			slog.Warn("failed to stop capture on close", "error", err)
		}
		cancel()
	}
	m.grabber.Close()
}

// TextCaptured implements capture.Notifier.
func (m *Manager) TextCaptured(sessionID, text string) {
	m.emit(Event{Kind: EventText, SessionID: sessionID, Text: text, At: time.Now()})
}

// Status implements capture.Notifier. A disconnect closes the catalog row
// since no Stop call will follow.
func (m *Manager) Status(sessionID, status string) {
	m.emit(Event{Kind: EventStatus, SessionID: sessionID, Text: status, At: time.Now()})
	if status == "disconnected" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.mu.Lock()
		loop := m.loop
		m.mu.Unlock()
		rawPath := ""
		if loop != nil {
			rawPath = loop.Session().RawPath
		}
		if err := m.store.End(ctx, sessionID, catalog.StatusDisconnected, countBlocks(rawPath)); err != nil {
			slog.Error("failed to mark session disconnected", "error", err, "session", sessionID)
		}
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		slog.Debug("event dropped, subscriber too slow", "kind", ev.Kind)
	}
}

func (m *Manager) runPipeline(rawPath, outPath string) (pipeline.Diagnostics, error) {
	p := pipeline.New(pipeline.Config{
		FrameWindow:      m.cfg.Pipeline.FrameWindow,
		DedupEnter:       m.cfg.Pipeline.DedupEnter,
		DedupExit:        m.cfg.Pipeline.DedupExit,
		MinLengthRatio:   m.cfg.Pipeline.MinLengthRatio,
		MinNewWords:      m.cfg.Pipeline.MinNewWords,
		MinSentenceWords: m.cfg.Pipeline.MinSentenceWords,
	})
	return p.Run(rawPath, outPath)
}

func processedPath(rawPath string) string {
	if strings.HasSuffix(rawPath, "_raw.txt") {
		return strings.TrimSuffix(rawPath, "_raw.txt") + "_processed.txt"
	}
	return rawPath + ".processed"
}

func countBlocks(rawPath string) int {
	if rawPath == "" {
		return 0
	}
	_, blocks, err := transcript.ParseFile(rawPath)
	if err != nil {
		slog.Warn("failed to count raw records", "error", err, "path", rawPath)
		return 0
	}
	return len(blocks)
}
