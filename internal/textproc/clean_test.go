package textproc

import "testing"

func TestCleanRaw(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"newlines collapsed", "hello\nworld\r\nagain", "hello world again"},
		{"whitespace runs", "hello   world\t\tagain", "hello world again"},
		{"control chars stripped", "hel\x00lo\x1fworld", "hel lo world"},
		{"content preserved", "50% off — really!?", "50% off — really!?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanRaw(tt.in); got != tt.want {
				t.Errorf("CleanRaw(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanRawIdempotent(t *testing.T) {
	inputs := []string{
		"hello\n\nworld",
		"  spaced   out  ",
		"already clean",
		"tab\tand\x07bell",
	}
	for _, in := range inputs {
		once := CleanRaw(in)
		if twice := CleanRaw(once); twice != once {
			t.Errorf("CleanRaw not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCleanNormalized(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello *** world", "hello world"},
		{"cost: $50 & rising", "cost: 50 rising"},
		{"keep, these. marks!", "keep, these. marks!"},
	}
	for _, tt := range tests {
		if got := CleanNormalized(tt.in); got != tt.want {
			t.Errorf("CleanNormalized(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsUIArtifact(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Press ESC to cancel", true},
		{"Click and drag to select", true},
		{"Please select capture area", true},
		{"press esc", true},
		{"The meeting starts at noon", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsUIArtifact(tt.in); got != tt.want {
			t.Errorf("IsUIArtifact(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsGibberishToken(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"wveTvuv7g", true},   // case mixing with digit interleave
		{"Microsoft", false},  // real word
		{"OK", false},         // too short to judge
		{"NASA", false},       // acronym exemption
		{"HTTP", false},       // acronym exemption
		{"bcdfgh", true},      // no vowels at all
		{"xxxxxx", true},      // repeated run, low diversity
		{"understand", false}, // consonant runs but healthy vowel ratio
		{"meeting", false},
		{"yes", false},     // below length floor
		{"aaaahhhh", true}, // repeated runs, two distinct chars
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := IsGibberishToken(tt.word); got != tt.want {
				t.Errorf("IsGibberishToken(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestCleanFrame(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean passthrough", "the meeting starts soon", "the meeting starts soon"},
		{"gibberish removed", "the meeting wveTvuv7g starts soon", "the meeting starts soon"},
		{"leading punctuation stripped", "...!! the meeting starts", "the meeting starts"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFrame(tt.in); got != tt.want {
				t.Errorf("CleanFrame(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanFrameDominantNoise(t *testing.T) {
	// Three gibberish words out of four: more than half removed, frame dropped.
	in := "bcdfgh wveTvuv7g xxxxxx meeting"
	if got := CleanFrame(in); got != "" {
		t.Errorf("CleanFrame(%q) = %q, want dropped frame", in, got)
	}
}
