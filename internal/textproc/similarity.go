package textproc

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the sequence similarity of two strings in [0,1],
// computed over characters (difflib ratio semantics). Empty input on
// either side yields 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// WordSet returns the lowercased set of words in text.
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		w = strings.ToLower(strings.Trim(w, ".,!?():"))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// WordOverlap returns the fraction of ref's words also present in other.
// Returns 0 when ref is empty.
func WordOverlap(other, ref string) float64 {
	refSet := WordSet(ref)
	if len(refSet) == 0 {
		return 0
	}
	otherSet := WordSet(other)
	shared := 0
	for w := range refSet {
		if _, ok := otherSet[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(refSet))
}

// NovelWords returns the words of text absent from prev, in order.
func NovelWords(text, prev string) []string {
	prevSet := WordSet(prev)
	var novel []string
	for _, w := range strings.Fields(text) {
		key := strings.ToLower(strings.Trim(w, ".,!?():"))
		if key == "" {
			continue
		}
		if _, ok := prevSet[key]; !ok {
			novel = append(novel, w)
		}
	}
	return novel
}

// LiveFilter is the frame-vs-last-emitted similarity gate used inside the
// capture loop.
type LiveFilter struct {
	threshold float64
}

// NewLiveFilter creates a filter with the given similarity threshold.
// Out-of-range thresholds fall back to the default.
func NewLiveFilter(threshold float64) *LiveFilter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &LiveFilter{threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (f *LiveFilter) Threshold() float64 { return f.threshold }

// HasSignificantNewContent reports whether newText should be emitted given
// the previously emitted text. An empty frame never emits; the first frame
// always does. Near-duplicates pass only when they carry a novel short
// semantic response ("yes", "ok", ...), so brief replies are not swallowed
// by a globally-similar rolling caption.
func (f *LiveFilter) HasSignificantNewContent(newText, previous string) bool {
	if newText == "" {
		return false
	}
	if previous == "" {
		return true
	}
	if Similarity(newText, previous) < f.threshold {
		return true
	}
	for _, w := range NovelWords(newText, previous) {
		if IsShortResponse(w) {
			return true
		}
	}
	return false
}
