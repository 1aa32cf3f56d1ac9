package pipeline

import "github.com/captiocr/captiocr/internal/textproc"

// consensusWindow is a sliding window of the most recent cleaned frames.
// A frame is trusted only when enough neighbors agree with it, which
// suppresses one-off OCR misreads.
type consensusWindow struct {
	size   int
	frames []string
}

func newConsensusWindow(size int) *consensusWindow {
	return &consensusWindow{size: size}
}

// Push appends a frame, evicting the oldest once the window is full.
func (w *consensusWindow) Push(frame string) {
	w.frames = append(w.frames, frame)
	if len(w.frames) > w.size {
		w.frames = w.frames[1:]
	}
}

// Candidate returns the accepted frame for the newest push. At least
// consensusVotes frames (the newest counts as one) must share
// consensusOverlap word overlap with the newest frame; the accepted
// candidate is the longest agreeing frame. A lone glitch between two
// matching real frames therefore never wins, while a real frame
// surrounded by its own repeats does.
func (w *consensusWindow) Candidate() (string, bool) {
	if len(w.frames) == 0 {
		return "", false
	}
	newest := w.frames[len(w.frames)-1]
	votes := 0
	longest := ""
	for _, frame := range w.frames {
		if textproc.WordOverlap(frame, newest) >= consensusOverlap {
			votes++
			if len(frame) > len(longest) {
				longest = frame
			}
		}
	}
	if votes < consensusVotes {
		return "", false
	}
	return longest, true
}
