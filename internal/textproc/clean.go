package textproc

import (
	"strings"
	"unicode"
)

// CleanRaw strips control characters and collapses newlines and runs of
// whitespace. It preserves content and is idempotent; this is the form
// persisted to the raw transcript.
func CleanRaw(text string) string {
	if text == "" {
		return ""
	}
	text = controlPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanNormalized additionally removes the restricted symbol set. The
// result is used only for similarity comparison and display, never
// persisted as the raw record.
func CleanNormalized(text string) string {
	text = CleanRaw(text)
	if text == "" {
		return ""
	}
	text = symbolPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsUIArtifact reports whether text matches a known capture-overlay phrase.
// Such frames are dropped unconditionally before emission.
func IsUIArtifact(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range uiArtifactPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsGibberishToken reports whether a word-shaped token is statistically
// unlikely to be real language. Tokens shorter than 4 runes are never
// gibberish; all-uppercase tokens up to 6 runes are exempt as acronyms.
func IsGibberishToken(word string) bool {
	runes := []rune(word)
	if len(runes) < gibberishMinLen {
		return false
	}

	var letters, vowels, digits, uppers int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
			if isVowel(r) {
				vowels++
			}
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters == 0 {
		return false
	}

	// Acronym exemption: HTTP, NASA, OK...
	if len(runes) <= acronymMaxLen && uppers == letters && digits == 0 {
		return false
	}

	vowelRatio := float64(vowels) / float64(letters)

	if len(runes) >= 5 && vowelRatio < vowelRatioSparse {
		return true
	}
	if consonantRun(runes) >= maxConsonantRun && vowelRatio < vowelRatioConsonantRun {
		return true
	}
	if hasCaseMixing(runes) && (hasDigitInterleave(runes) || vowelRatio < vowelRatioCaseMixed) {
		return true
	}
	if repeatRun(runes) >= maxRepeatRun && charDiversity(runes) < minCharDiversity {
		return true
	}
	return false
}

// CleanFrame removes gibberish tokens and leading punctuation runs from a
// frame. If more than half the original words were removed the whole frame
// is considered noise and an empty string is returned.
func CleanFrame(text string) string {
	text = CleanRaw(text)
	if text == "" {
		return ""
	}

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !IsGibberishToken(w) {
			kept = append(kept, w)
		}
	}
	if len(words) > 0 {
		removed := float64(len(words)-len(kept)) / float64(len(words))
		if removed > dominantNoiseRatio {
			return ""
		}
	}

	out := strings.Join(kept, " ")
	out = leadingPunctPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u', 'y',
		'à', 'è', 'é', 'ì', 'ò', 'ù', 'á', 'í', 'ó', 'ú', 'ä', 'ö', 'ü', 'ê', 'â', 'î', 'ô', 'û':
		return true
	}
	return false
}

// consonantRun returns the longest run of consecutive consonant letters.
// Digits and punctuation break the run.
func consonantRun(runes []rune) int {
	run, best := 0, 0
	for _, r := range runes {
		if unicode.IsLetter(r) && !isVowel(r) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// hasCaseMixing reports an interior case flip: an uppercase letter directly
// preceded by a lowercase one. A single leading capital does not count.
func hasCaseMixing(runes []rune) bool {
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			return true
		}
	}
	return false
}

// hasDigitInterleave reports a digit with letters on both sides.
func hasDigitInterleave(runes []rune) bool {
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			continue
		}
		before, after := false, false
		for j := 0; j < i; j++ {
			if unicode.IsLetter(runes[j]) {
				before = true
				break
			}
		}
		for j := i + 1; j < len(runes); j++ {
			if unicode.IsLetter(runes[j]) {
				after = true
				break
			}
		}
		if before && after {
			return true
		}
	}
	return false
}

// repeatRun returns the longest run of one repeated rune.
func repeatRun(runes []rune) int {
	run, best := 1, 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func charDiversity(runes []rune) float64 {
	if len(runes) == 0 {
		return 1
	}
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		seen[unicode.ToLower(r)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(runes))
}
