package textproc

import (
	"regexp"
	"strings"
)

// Compiled pattern registry shared by the cleaner, the speaker repairer,
// and the sentence segmenter. Language-agnostic: name shapes use Unicode
// letter classes, not ASCII.
var (
	controlPattern    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Restricted symbol set stripped from the comparison form only; the
	// persisted raw form keeps everything CleanRaw leaves.
	symbolPattern = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?():'@\-]+`)

	leadingPunctPattern = regexp.MustCompile(`^[^\p{L}\p{N}]+\s*`)

	// Fully-qualified speaker labels. Only these shapes seed the name cache
	// and split sentences; bare "Word, Word" text never does.
	handleLabelPattern    = regexp.MustCompile(`\b\p{Lu}[\p{L}'-]+(?:\s\p{Lu}[\p{L}'-]+)*\s@[\w.-]+`)
	qualifiedLabelPattern = regexp.MustCompile(`\b\p{Lu}[\p{L}'-]+,\s*\p{Lu}[\p{L}'-]+\s*\([^)]+\)`)

	// Label-shaped text without a qualifier: a repair candidate, never a
	// canonical source.
	bareNamePattern = regexp.MustCompile(`\b\p{Lu}[\p{L}'-]+,\s*\p{Lu}[\p{L}'-]+`)

	sentenceEndPattern = regexp.MustCompile(`[.!?]+`)
)

// uiArtifactPhrases are overlay instructions the capture UI paints over the
// screen; frames containing them are never captions.
var uiArtifactPhrases = []string{
	"press esc",
	"click and drag",
	"select capture area",
}

// shortResponses are brief replies that a rolling caption would otherwise
// swallow as "too similar".
var shortResponses = map[string]struct{}{
	"yes": {}, "no": {}, "ok": {}, "okay": {}, "sure": {}, "right": {},
	"thanks": {}, "thank": {}, "hello": {}, "hi": {}, "bye": {},
	"goodbye": {}, "correct": {}, "exactly": {}, "agreed": {},
	"yeah": {}, "yep": {}, "nope": {},
}

// IsShortResponse reports whether word (case-insensitive) is a recognized
// brief reply.
func IsShortResponse(word string) bool {
	_, ok := shortResponses[strings.ToLower(strings.Trim(word, ".,!?"))]
	return ok
}

// SpeakerLabels returns every fully-qualified speaker label in text, in
// order of appearance.
func SpeakerLabels(text string) []string {
	var labels []string
	labels = append(labels, handleLabelPattern.FindAllString(text, -1)...)
	labels = append(labels, qualifiedLabelPattern.FindAllString(text, -1)...)
	return labels
}

// SplitSpeakerLabels returns the indexes in text where a fully-qualified
// speaker label starts. Ambiguous bare "A, B" patterns never split.
func SplitSpeakerLabels(text string) []int {
	var idx []int
	for _, loc := range handleLabelPattern.FindAllStringIndex(text, -1) {
		idx = append(idx, loc[0])
	}
	for _, loc := range qualifiedLabelPattern.FindAllStringIndex(text, -1) {
		idx = append(idx, loc[0])
	}
	return idx
}

// SplitTerminal splits text at terminal punctuation runs, keeping the
// punctuation attached to the preceding segment.
func SplitTerminal(text string) []string {
	var segs []string
	last := 0
	for _, loc := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		if seg := strings.TrimSpace(text[last:loc[1]]); seg != "" {
			segs = append(segs, seg)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		segs = append(segs, rest)
	}
	return segs
}
