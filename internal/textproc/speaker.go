package textproc

import (
	"sort"
	"strings"
	"unicode"
)

// NameRepairer rewrites truncated or OCR-mangled speaker labels to their
// canonical form. The cache is built once per raw document from labels
// carrying a disambiguating qualifier ("Name @handle" or
// "Last, First (qualifier)"), never from bare "Word, Word" text, which
// would produce false positives.
type NameRepairer struct {
	canonical  []string          // qualified labels, first-seen order
	bases      map[string]string // base name -> canonical label
	candidates map[string]struct{}
	variants   map[string]string // variant -> canonical label
	ordered    []string          // variant keys, longest first
}

// NewNameRepairer creates an empty repairer. Feed every raw block through
// Scan, then call Compile before Repair.
func NewNameRepairer() *NameRepairer {
	return &NameRepairer{
		bases:      make(map[string]string),
		candidates: make(map[string]struct{}),
		variants:   make(map[string]string),
	}
}

// Scan collects qualified labels and label-shaped repair candidates from
// one block of raw text.
func (r *NameRepairer) Scan(text string) {
	for _, label := range SpeakerLabels(text) {
		label = strings.TrimSpace(label)
		base := labelBase(label)
		if _, seen := r.bases[base]; !seen {
			r.canonical = append(r.canonical, label)
			r.bases[base] = label
		}
	}
	for _, cand := range bareNamePattern.FindAllString(text, -1) {
		r.candidates[strings.TrimSpace(cand)] = struct{}{}
	}
}

// Compile builds the variant cache: every prefix of a canonical label of
// length 6..n-1, plus any label-shaped candidate whose similarity to a
// canonical base name is at least 0.75.
func (r *NameRepairer) Compile() {
	for base, label := range r.bases {
		runes := []rune(label)
		for i := minPrefixVariantLen; i < len(runes); i++ {
			variant := strings.TrimRight(string(runes[:i]), " ,(")
			if len([]rune(variant)) < minPrefixVariantLen || variant == label {
				continue
			}
			r.variants[variant] = label
		}

		for cand := range r.candidates {
			if cand == label || cand == base {
				continue
			}
			if _, exists := r.variants[cand]; exists {
				continue
			}
			if Similarity(cand, base) >= fuzzyNameThreshold {
				r.variants[cand] = label
			}
		}
	}

	r.ordered = make([]string, 0, len(r.variants))
	for v := range r.variants {
		r.ordered = append(r.ordered, v)
	}
	// Longest first, so a partial substitution can never shadow a better
	// match; ties broken lexicographically for determinism.
	sort.Slice(r.ordered, func(i, j int) bool {
		if len(r.ordered[i]) != len(r.ordered[j]) {
			return len(r.ordered[i]) > len(r.ordered[j])
		}
		return r.ordered[i] < r.ordered[j]
	})
}

// Canonical returns the collected qualified labels.
func (r *NameRepairer) Canonical() []string {
	out := make([]string, len(r.canonical))
	copy(out, r.canonical)
	return out
}

// Repair rewrites every known variant in text to its canonical label.
// Text already in canonical form is left untouched.
func (r *NameRepairer) Repair(text string) string {
	for _, variant := range r.ordered {
		canonical := r.variants[variant]
		text = replaceVariant(text, variant, canonical)
	}
	return text
}

// replaceVariant substitutes whole occurrences of variant with canonical,
// skipping positions where the text already continues as the canonical
// label and positions that are not word-bounded.
func replaceVariant(text, variant, canonical string) string {
	var b strings.Builder
	for {
		pos := strings.Index(text, variant)
		if pos < 0 {
			b.WriteString(text)
			break
		}

		rest := text[pos:]
		end := pos + len(variant)
		boundedStart := pos == 0 || !isWordRune(lastRune(text[:pos]))
		boundedEnd := end == len(text) || !isWordRune(firstRune(text[end:]))

		if strings.HasPrefix(rest, canonical) {
			// Already canonical here; copy it through whole.
			b.WriteString(text[:pos+len(canonical)])
			text = text[pos+len(canonical):]
			continue
		}
		if boundedStart && boundedEnd {
			b.WriteString(text[:pos])
			b.WriteString(canonical)
		} else {
			b.WriteString(text[:end])
		}
		text = text[end:]
	}
	return b.String()
}

func labelBase(label string) string {
	if at := strings.Index(label, "@"); at >= 0 {
		return strings.TrimSpace(label[:at])
	}
	if par := strings.Index(label, "("); par >= 0 {
		return strings.TrimSpace(label[:par])
	}
	return label
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}
