package transcript

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/captiocr/captiocr/internal/errors"
)

const (
	headerTimeLayout = "2006-01-02 15:04:05"
	separatorLine    = "----------------------------------------"
)

// Writer appends records to a raw transcript file. It has a single owner
// (the capture goroutine); records land in strict chronological order.
type Writer struct {
	path  string
	f     *os.File
	bw    *bufio.Writer
	count int
}

// NewWriter creates the raw file and writes the session header.
func NewWriter(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "create captures directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "create raw transcript")
	}

	w := &Writer{path: path, f: f, bw: bufio.NewWriter(f)}
	fmt.Fprintf(w.bw, "Caption capture started: %s\n", h.Started.Format(headerTimeLayout))
	fmt.Fprintf(w.bw, "Language: %s\n", h.Language)
	fmt.Fprintf(w.bw, "Caption mode: %t\n", h.CaptionMode)
	fmt.Fprintf(w.bw, "Similarity threshold: %.2f\n", h.SimilarityThreshold)
	fmt.Fprintf(w.bw, "Interval bounds: %.1fs - %.1fs\n", h.MinInterval, h.MaxInterval)
	fmt.Fprintln(w.bw)
	if err := w.bw.Flush(); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.CodeStorageFailed, "write raw header")
	}
	return w, nil
}

// Append writes one record and flushes it to disk. Captions arrive on a
// multi-second cadence, so per-record flushing costs nothing and keeps the
// file valid at any stop point.
func (w *Writer) Append(at time.Time, text string) error {
	fmt.Fprintf(w.bw, "%s %s\n", NewClock(at), text)
	if err := w.bw.Flush(); err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "append raw record")
	}
	w.count++
	return nil
}

// Count returns the number of records appended.
func (w *Writer) Count() int { return w.count }

// Path returns the raw file path.
func (w *Writer) Path() string { return w.path }

// Close flushes and closes the raw file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return errors.Wrap(err, errors.CodeStorageFailed, "flush raw transcript")
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return errors.Wrap(err, errors.CodeStorageFailed, "sync raw transcript")
	}
	return w.f.Close()
}

// WriteProcessed writes a processed transcript: metadata header, separator,
// then one line per chunk. The file is written to a temp sibling and
// renamed, so a failed run never leaves a partial processed file behind.
func WriteProcessed(path string, meta ProcessedMeta, chunks []Chunk) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "create processed transcript")
	}

	bw := bufio.NewWriter(f)
	fmt.Fprintln(bw, "Processed transcript")
	fmt.Fprintf(bw, "Processed at: %s\n", meta.ProcessedAt.Format(headerTimeLayout))
	fmt.Fprintf(bw, "Caption capture started: %s\n", meta.Source.Started.Format(headerTimeLayout))
	fmt.Fprintf(bw, "Language: %s\n", meta.Source.Language)
	fmt.Fprintf(bw, "Caption mode: %t\n", meta.Source.CaptionMode)
	fmt.Fprintf(bw, "Original blocks: %d\n", meta.OriginalBlocks)
	fmt.Fprintf(bw, "Processed chunks: %d\n", meta.ProcessedChunks)
	fmt.Fprintf(bw, "Possible drops: %d\n", meta.PossibleDrops)
	fmt.Fprintln(bw, separatorLine)
	for _, c := range chunks {
		fmt.Fprintf(bw, "%s %s\n", c.Clock, c.Text)
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, errors.CodeStorageFailed, "write processed transcript")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.CodeStorageFailed, "close processed transcript")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.CodeStorageFailed, "finalize processed transcript")
	}
	return nil
}
