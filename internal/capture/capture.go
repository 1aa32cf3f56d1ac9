// Package capture runs the live capture session: an adaptive-interval loop
// that screenshots the selected region, OCRs it, and appends plausibly-new
// frames to a raw transcript. Dedup here is deliberately loose; the batch
// pipeline does the aggressive pass later.
package capture

import (
	"context"
	"image"
	"time"
)

// State is the lifecycle of a capture session.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

const (
	// maxHashDistance is the pHash Hamming distance at or under which two
	// frames are considered the same image and OCR is skipped.
	maxHashDistance = 5

	// areaFailureLimit ends the session after this many consecutive
	// region validation failures (display disconnect or resize).
	areaFailureLimit = 3

	// errorBackoff is the pause after a failed iteration before retrying.
	errorBackoff = time.Second

	// stopJoinTimeout bounds how long Stop waits for the worker to exit.
	stopJoinTimeout = 2 * time.Second

	// stopGraceDelay lets the final append reach disk before the raw
	// path is handed to the caller.
	stopGraceDelay = 200 * time.Millisecond
)

// Recognizer extracts text from a frame.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Notifier receives one-way session events. Implementations must not
// block; the loop calls them inline.
type Notifier interface {
	TextCaptured(sessionID, text string)
	Status(sessionID, status string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) TextCaptured(string, string) {}
func (NopNotifier) Status(string, string)       {}
