package pipeline

import (
	"sort"
	"strings"

	"github.com/captiocr/captiocr/internal/textproc"
)

// extractNovel returns the slice of candidate not already covered by
// previous: the words between the longest common word-prefix and the
// longest non-overlapping common word-suffix.
func extractNovel(candidate, previous string) string {
	if previous == "" {
		return candidate
	}
	cw := strings.Fields(candidate)
	pw := strings.Fields(previous)

	prefix := 0
	for prefix < len(cw) && prefix < len(pw) && strings.EqualFold(cw[prefix], pw[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(cw)-prefix && suffix < len(pw)-prefix &&
		strings.EqualFold(cw[len(cw)-1-suffix], pw[len(pw)-1-suffix]) {
		suffix++
	}
	return strings.Join(cw[prefix:len(cw)-suffix], " ")
}

// segment splits novel text into sentences at speaker-label boundaries and
// terminal punctuation, then filters out fragments too short to carry
// meaning. Protected phrases and recognized short replies are exempt from
// the length filter. Each surviving sentence keeps its own terminal mark;
// unpunctuated ones get a period.
func (p *Pipeline) segment(text string) []string {
	var sentences []string
	for _, piece := range splitAtLabels(text) {
		for _, seg := range textproc.SplitTerminal(piece) {
			body := strings.TrimRight(seg, ".!? ")
			if body == "" {
				continue
			}
			if p.keepSegment(body) {
				sentences = append(sentences, body+terminalMark(seg[len(body):]))
			}
		}
	}
	return sentences
}

// terminalMark preserves a sentence's own ending punctuation so questions
// and exclamations are not flattened to periods.
func terminalMark(tail string) string {
	mark := strings.TrimSpace(tail)
	if mark == "" {
		return "."
	}
	return mark
}

func (p *Pipeline) keepSegment(seg string) bool {
	if len(strings.Fields(seg)) >= p.cfg.MinSentenceWords {
		return true
	}
	lower := strings.ToLower(seg)
	for _, phrase := range p.cfg.ProtectedPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	words := strings.Fields(seg)
	return len(words) == 1 && textproc.IsShortResponse(words[0])
}

// splitAtLabels cuts text where a fully-qualified speaker label starts, so
// a frame holding two speakers' lines becomes two pieces.
func splitAtLabels(text string) []string {
	idx := textproc.SplitSpeakerLabels(text)
	if len(idx) == 0 {
		return []string{text}
	}
	sort.Ints(idx)

	var pieces []string
	last := 0
	for _, i := range idx {
		if i > last {
			if piece := strings.TrimSpace(text[last:i]); piece != "" {
				pieces = append(pieces, piece)
			}
			last = i
		}
	}
	if piece := strings.TrimSpace(text[last:]); piece != "" {
		pieces = append(pieces, piece)
	}
	return pieces
}
