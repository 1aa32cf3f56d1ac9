// Package textproc implements the caption text primitives: adaptive capture
// intervals, OCR artifact cleaning, live similarity filtering, and speaker
// label repair.
package textproc

// Interval controller tuning
const (
	DefaultMinInterval = 3.0 // seconds
	DefaultMaxInterval = 6.0 // seconds

	// Hard floor for the minimum interval; anything faster hammers the OCR
	// engine for no caption gain.
	IntervalFloor = 0.5

	IntervalIncreaseStep = 1.0
	IntervalDecreaseStep = 0.5
)

// Live filter tuning
const (
	DefaultSimilarityThreshold = 0.8
)

// Gibberish detection tuning
const (
	gibberishMinLen        = 4
	acronymMaxLen          = 6
	vowelRatioSparse       = 0.15
	vowelRatioConsonantRun = 0.25
	vowelRatioCaseMixed    = 0.30
	maxConsonantRun        = 4
	maxRepeatRun           = 3
	minCharDiversity       = 0.5

	// CleanFrame drops the whole frame when more than this fraction of its
	// words were gibberish.
	dominantNoiseRatio = 0.5
)

// Speaker repair tuning
const (
	minPrefixVariantLen = 6
	fuzzyNameThreshold  = 0.75
)
