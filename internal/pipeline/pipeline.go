package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/captiocr/captiocr/internal/textproc"
	"github.com/captiocr/captiocr/internal/transcript"
)

// dropGap is the inter-chunk gap beyond which low similarity suggests
// captions were missed rather than silent.
const (
	dropGap           = 30 * time.Second
	dropSimilarityMax = 0.3
)

// DropWarning flags a stretch of the processed transcript where content
// may have been lost. Reporting only, never blocking.
type DropWarning struct {
	From       transcript.Clock
	To         transcript.Clock
	Gap        time.Duration
	Similarity float64
}

// Diagnostics summarizes what each stage did with the input blocks.
type Diagnostics struct {
	OriginalBlocks int
	Emitted        int
	UIArtifacts    int
	NoiseDropped   int
	NoConsensus    int
	Downgraded     int
	DedupSkipped   int
	NoNovelty      int
	EmptySegments  int
	PossibleDrops  []DropWarning
}

// Pipeline is the batch dedup processor. Construct one per run; it keeps
// per-run state (consensus window, dedup mode, previous emission).
type Pipeline struct {
	cfg Config
}

// New returns a pipeline with normalized tunables.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg.normalize()}
}

// Process runs the ordered raw blocks through every stage and returns the
// surviving chunks plus per-stage diagnostics. Timestamps stay monotonic
// with the source because blocks are consumed in order and each chunk
// takes its block's clock.
func (p *Pipeline) Process(blocks []transcript.Block) ([]transcript.Chunk, Diagnostics) {
	diag := Diagnostics{OriginalBlocks: len(blocks)}

	repairer := textproc.NewNameRepairer()
	for _, b := range blocks {
		repairer.Scan(b.Text)
	}
	repairer.Compile()

	window := newConsensusWindow(p.cfg.FrameWindow)
	var chunks []transcript.Chunk
	prevEmitted := ""
	inDedup := false

	for _, b := range blocks {
		text := textproc.CleanRaw(b.Text)
		if text == "" {
			diag.NoiseDropped++
			continue
		}
		if textproc.IsUIArtifact(text) {
			diag.UIArtifacts++
			continue
		}

		cleaned := textproc.CleanFrame(text)
		if cleaned == "" {
			diag.NoiseDropped++
			continue
		}

		cleaned = repairer.Repair(cleaned)

		window.Push(cleaned)
		candidate, ok := window.Candidate()
		if !ok {
			diag.NoConsensus++
			continue
		}

		if prevEmitted != "" {
			// Reject spurious short replacements of a longer frame.
			if float64(len(candidate)) < p.cfg.MinLengthRatio*float64(len(prevEmitted)) &&
				len(textproc.NovelWords(candidate, prevEmitted)) < p.cfg.MinNewWords {
				diag.Downgraded++
				continue
			}

			sim := textproc.Similarity(candidate, prevEmitted)
			if !inDedup {
				if sim >= p.cfg.DedupEnter {
					inDedup = true
					diag.DedupSkipped++
					continue
				}
			} else {
				if sim > p.cfg.DedupExit {
					diag.DedupSkipped++
					continue
				}
				inDedup = false
			}
		}

		novel := extractNovel(candidate, prevEmitted)
		if novel == "" {
			diag.NoNovelty++
			continue
		}

		sentences := p.segment(novel)
		if len(sentences) == 0 {
			diag.EmptySegments++
			continue
		}

		chunks = append(chunks, transcript.Chunk{
			Clock: b.Clock,
			Text:  joinSentences(sentences),
		})
		prevEmitted = candidate
		diag.Emitted++
	}

	diag.PossibleDrops = findPossibleDrops(chunks)
	return chunks, diag
}

// Run parses the raw file, processes it, and writes the processed file.
// An empty or headerless raw file yields a warning and no output file.
func (p *Pipeline) Run(rawPath, outPath string) (Diagnostics, error) {
	header, blocks, err := transcript.ParseFile(rawPath)
	if err != nil {
		return Diagnostics{}, err
	}
	chunks, diag := p.Process(blocks)
	if len(chunks) == 0 {
		slog.Warn("post-processing produced no chunks, skipping output file",
			"raw", rawPath, "blocks", len(blocks))
		return diag, nil
	}

	meta := transcript.ProcessedMeta{
		ProcessedAt:     time.Now(),
		Source:          header,
		OriginalBlocks:  diag.OriginalBlocks,
		ProcessedChunks: diag.Emitted,
		PossibleDrops:   len(diag.PossibleDrops),
	}
	if err := transcript.WriteProcessed(outPath, meta, chunks); err != nil {
		return diag, err
	}
	return diag, nil
}

// joinSentences merges surviving segments into one chunk line. Each
// segment already carries its terminal mark.
func joinSentences(sentences []string) string {
	return strings.Join(sentences, " ")
}

// findPossibleDrops flags long timestamp gaps whose surrounding chunks
// share little text, a sign of missed captions rather than silence.
func findPossibleDrops(chunks []transcript.Chunk) []DropWarning {
	var drops []DropWarning
	for i := 1; i < len(chunks); i++ {
		gap := chunks[i-1].Clock.GapTo(chunks[i].Clock)
		if gap <= dropGap {
			continue
		}
		sim := textproc.Similarity(chunks[i-1].Text, chunks[i].Text)
		if sim < dropSimilarityMax {
			drops = append(drops, DropWarning{
				From:       chunks[i-1].Clock,
				To:         chunks[i].Clock,
				Gap:        gap,
				Similarity: sim,
			})
		}
	}
	return drops
}
