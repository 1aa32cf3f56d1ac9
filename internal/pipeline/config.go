// Package pipeline turns a closed raw transcript into a deduplicated,
// readable one. It runs once per session, single-threaded, and is safe to
// re-run on the same raw file.
package pipeline

import "log/slog"

// Defaults
const (
	DefaultFrameWindow      = 3
	DefaultDedupEnter       = 0.85
	DefaultDedupExit        = 0.55
	DefaultMinLengthRatio   = 0.5
	DefaultMinNewWords      = 3
	DefaultMinSentenceWords = 3

	minFrameWindow = 2
	maxFrameWindow = 5

	// consensusOverlap is the word-set agreement a frame must share with
	// the newest frame to count toward consensus.
	consensusOverlap = 0.5
	consensusVotes   = 2
)

// defaultProtectedPhrases are workflow terms that survive the min-word and
// novelty filters even when a segment is short.
var defaultProtectedPhrases = []string{
	"pull request",
	"merge request",
	"code review",
	"action item",
	"follow up",
	"sign off",
}

// Config holds the batch-processing tunables. Pass it by value; the
// pipeline keeps its own normalized copy.
type Config struct {
	FrameWindow      int
	DedupEnter       float64
	DedupExit        float64
	MinLengthRatio   float64
	MinNewWords      int
	MinSentenceWords int
	ProtectedPhrases []string
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		FrameWindow:      DefaultFrameWindow,
		DedupEnter:       DefaultDedupEnter,
		DedupExit:        DefaultDedupExit,
		MinLengthRatio:   DefaultMinLengthRatio,
		MinNewWords:      DefaultMinNewWords,
		MinSentenceWords: DefaultMinSentenceWords,
		ProtectedPhrases: defaultProtectedPhrases,
	}
}

// normalize fixes out-of-range tunables. A hysteresis band with
// exit >= enter is reset to defaults rather than rejected.
func (c Config) normalize() Config {
	if c.FrameWindow < minFrameWindow {
		c.FrameWindow = minFrameWindow
	}
	if c.FrameWindow > maxFrameWindow {
		c.FrameWindow = maxFrameWindow
	}
	if c.DedupExit >= c.DedupEnter {
		slog.Warn("invalid dedup hysteresis band, using defaults",
			"enter", c.DedupEnter, "exit", c.DedupExit)
		c.DedupEnter = DefaultDedupEnter
		c.DedupExit = DefaultDedupExit
	}
	if c.MinLengthRatio <= 0 || c.MinLengthRatio >= 1 {
		c.MinLengthRatio = DefaultMinLengthRatio
	}
	if c.MinNewWords < 1 {
		c.MinNewWords = DefaultMinNewWords
	}
	if c.MinSentenceWords < 1 {
		c.MinSentenceWords = DefaultMinSentenceWords
	}
	if len(c.ProtectedPhrases) == 0 {
		c.ProtectedPhrases = defaultProtectedPhrases
	}
	return c
}
