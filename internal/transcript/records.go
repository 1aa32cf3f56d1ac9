// Package transcript defines the raw and processed transcript file formats:
// a metadata header followed by "[HH:MM:SS] text" records. The raw file is
// append-only ground truth; the processed file is derived and rewritable.
package transcript

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day in whole seconds, as carried by the
// bracketed record timestamps.
type Clock int

// NewClock builds a Clock from a time.Time.
func NewClock(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String formats the clock as the bracketed record prefix.
func (c Clock) String() string {
	return fmt.Sprintf("[%02d:%02d:%02d]", int(c)/3600, int(c)/60%60, int(c)%60)
}

// GapTo returns the elapsed duration from c to later, assuming at most one
// midnight rollover.
func (c Clock) GapTo(later Clock) time.Duration {
	diff := int(later) - int(c)
	if diff < 0 {
		diff += 24 * 3600
	}
	return time.Duration(diff) * time.Second
}

// Header is the session metadata block at the top of a raw transcript.
type Header struct {
	Started             time.Time
	Language            string
	CaptionMode         bool
	SimilarityThreshold float64
	MinInterval         float64
	MaxInterval         float64
}

// Block is one raw record: timestamp plus lightly-cleaned OCR text.
type Block struct {
	Clock Clock
	Text  string
}

// Chunk is one processed output record; chunks are ordered and their
// timestamps are monotonic with the source blocks.
type Chunk struct {
	Clock Clock
	Text  string
}

// ProcessedMeta is the metadata header of a processed transcript.
type ProcessedMeta struct {
	ProcessedAt     time.Time
	Source          Header
	OriginalBlocks  int
	ProcessedChunks int
	PossibleDrops   int
}
