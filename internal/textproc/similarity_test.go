package textproc

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello world", "hello world", 1.0},
		{"both empty", "", "", 0.0},
		{"one empty", "hello", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityOrdering(t *testing.T) {
	base := "the quick brown fox jumps over the lazy dog"
	near := "the quick brown fox jumps over the lazy cat"
	far := "completely unrelated caption content here"

	simNear := Similarity(base, near)
	simFar := Similarity(base, far)

	if simNear <= simFar {
		t.Errorf("near similarity %v should exceed far similarity %v", simNear, simFar)
	}
	if simNear < 0.8 {
		t.Errorf("near-duplicate similarity %v unexpectedly low", simNear)
	}
}

func TestWordOverlap(t *testing.T) {
	if got := WordOverlap("a b c d", "a b c d"); got != 1.0 {
		t.Errorf("identical overlap = %v, want 1.0", got)
	}
	if got := WordOverlap("a b x y", "a b c d"); got != 0.5 {
		t.Errorf("half overlap = %v, want 0.5", got)
	}
	if got := WordOverlap("x y z w", "a b c d"); got != 0.0 {
		t.Errorf("disjoint overlap = %v, want 0.0", got)
	}
}

func TestHasSignificantNewContent(t *testing.T) {
	f := NewLiveFilter(0.8)

	tests := []struct {
		name     string
		new, old string
		want     bool
	}{
		{"empty new never emits", "", "anything", false},
		{"first frame always emits", "hello world", "", true},
		{"identical not significant", "hello world how are you today", "hello world how are you today", false},
		{"different enough", "completely new caption text", "hello world how are you today", true},
		{"short response bypass", "hello world how are you today yes", "hello world how are you today", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.HasSignificantNewContent(tt.new, tt.old); got != tt.want {
				t.Errorf("HasSignificantNewContent(%q, %q) = %v, want %v", tt.new, tt.old, got, tt.want)
			}
		})
	}
}

func TestLiveFilterDefaultThreshold(t *testing.T) {
	f := NewLiveFilter(0)
	if f.Threshold() != DefaultSimilarityThreshold {
		t.Errorf("Threshold() = %v, want %v", f.Threshold(), DefaultSimilarityThreshold)
	}
	f = NewLiveFilter(1.5)
	if f.Threshold() != DefaultSimilarityThreshold {
		t.Errorf("Threshold() = %v, want default for out-of-range input", f.Threshold())
	}
}

func TestNovelWords(t *testing.T) {
	novel := NovelWords("hello world again", "hello world")
	if len(novel) != 1 || novel[0] != "again" {
		t.Errorf("NovelWords = %v, want [again]", novel)
	}
}
