package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func testHeader() Header {
	return Header{
		Started:             time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Language:            "eng",
		CaptionMode:         true,
		SimilarityThreshold: 0.8,
		MinInterval:         3.0,
		MaxInterval:         6.0,
	}
}

func TestClockString(t *testing.T) {
	c := NewClock(time.Date(2025, 3, 10, 9, 5, 7, 0, time.UTC))
	if c.String() != "[09:05:07]" {
		t.Errorf("Clock.String() = %q, want [09:05:07]", c.String())
	}
}

func TestClockGap(t *testing.T) {
	a := Clock(10 * 3600)
	b := Clock(10*3600 + 45)
	if got := a.GapTo(b); got != 45*time.Second {
		t.Errorf("GapTo = %v, want 45s", got)
	}

	// Midnight rollover.
	late := Clock(23*3600 + 59*60 + 50)
	early := Clock(5)
	if got := late.GapTo(early); got != 15*time.Second {
		t.Errorf("rollover GapTo = %v, want 15s", got)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture_test.txt")

	w, err := NewWriter(path, testHeader())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	at := time.Date(2025, 3, 10, 10, 0, 3, 0, time.UTC)
	if err := w.Append(at, "hello world"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(at.Add(4*time.Second), "hello world again"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h, blocks, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if h.Language != "eng" {
		t.Errorf("Language = %q, want eng", h.Language)
	}
	if !h.CaptionMode {
		t.Error("CaptionMode should parse as true")
	}
	if h.SimilarityThreshold != 0.8 {
		t.Errorf("SimilarityThreshold = %v, want 0.8", h.SimilarityThreshold)
	}
	if h.MinInterval != 3.0 || h.MaxInterval != 6.0 {
		t.Errorf("interval bounds = (%v, %v), want (3, 6)", h.MinInterval, h.MaxInterval)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Text != "hello world" {
		t.Errorf("block[0].Text = %q", blocks[0].Text)
	}
	if blocks[0].Clock.String() != "[10:00:03]" {
		t.Errorf("block[0].Clock = %v", blocks[0].Clock)
	}
}

func TestParseContinuationLines(t *testing.T) {
	raw := "Language: eng\n\n[10:00:01] first line\nwrapped tail\n[10:00:05] second\n"
	_, blocks, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Text != "first line wrapped tail" {
		t.Errorf("block[0].Text = %q, want folded continuation", blocks[0].Text)
	}
}

func TestParseEmpty(t *testing.T) {
	_, blocks, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("blocks = %d, want 0", len(blocks))
	}
}

func TestWriteProcessed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture_test_processed.txt")

	meta := ProcessedMeta{
		ProcessedAt:     time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
		Source:          testHeader(),
		OriginalBlocks:  10,
		ProcessedChunks: 2,
	}
	chunks := []Chunk{
		{Clock: Clock(36003), Text: "first chunk."},
		{Clock: Clock(36010), Text: "second chunk."},
	}
	if err := WriteProcessed(path, meta, chunks); err != nil {
		t.Fatalf("WriteProcessed: %v", err)
	}

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(data, "Original blocks: 10") {
		t.Error("missing original block count")
	}
	if !strings.Contains(data, separatorLine) {
		t.Error("missing separator line")
	}
	if !strings.Contains(data, "[10:00:03] first chunk.") {
		t.Errorf("missing chunk record in:\n%s", data)
	}
}
