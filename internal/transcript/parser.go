package transcript

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/captiocr/captiocr/internal/errors"
)

var recordPattern = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})\]\s?(.*)$`)

// ParseFile reads a raw transcript from disk.
func ParseFile(path string) (Header, []Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, errors.Wrap(err, errors.CodeStorageFailed, "open raw transcript")
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the header and timestamped blocks from a raw transcript.
// Continuation lines are folded into the preceding block. A file with no
// records yields an empty block slice, not an error.
func Parse(r io.Reader) (Header, []Block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var h Header
	var blocks []Block
	inHeader := true

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if m := recordPattern.FindStringSubmatch(line); m != nil {
			inHeader = false
			hh, _ := strconv.Atoi(m[1])
			mm, _ := strconv.Atoi(m[2])
			ss, _ := strconv.Atoi(m[3])
			blocks = append(blocks, Block{
				Clock: Clock(hh*3600 + mm*60 + ss),
				Text:  strings.TrimSpace(m[4]),
			})
			continue
		}

		if inHeader {
			parseHeaderLine(&h, line)
			continue
		}

		// Continuation of the previous record.
		if trimmed := strings.TrimSpace(line); trimmed != "" && len(blocks) > 0 {
			blocks[len(blocks)-1].Text += " " + trimmed
		}
	}
	if err := sc.Err(); err != nil {
		return h, nil, errors.Wrap(err, errors.CodeStorageFailed, "read raw transcript")
	}
	return h, blocks, nil
}

func parseHeaderLine(h *Header, line string) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimSpace(strings.TrimPrefix(line, key+":"))

	switch strings.TrimSpace(key) {
	case "Caption capture started":
		if t, err := time.Parse(headerTimeLayout, value); err == nil {
			h.Started = t
		}
	case "Language":
		h.Language = value
	case "Caption mode":
		h.CaptionMode = value == "true"
	case "Similarity threshold":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			h.SimilarityThreshold = f
		}
	case "Interval bounds":
		parts := strings.SplitN(value, "-", 2)
		if len(parts) == 2 {
			if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "s"), 64); err == nil {
				h.MinInterval = f
			}
			if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[1]), "s"), 64); err == nil {
				h.MaxInterval = f
			}
		}
	}
}
