package capture

import (
	"context"
	"image"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/captiocr/captiocr/internal/errors"
	"github.com/captiocr/captiocr/internal/ocr"
	"github.com/captiocr/captiocr/internal/textproc"
	"github.com/captiocr/captiocr/internal/trace"
	"github.com/captiocr/captiocr/internal/transcript"
)

// run is the capture worker. It exits on cancellation, when the area
// latch trips, or on a non-retryable iteration error; transient errors
// are logged and retried on the next tick.
func (l *Loop) run(ctx context.Context, sess Session, writer *transcript.Writer, interval *textproc.IntervalController) {
	defer close(l.done)
	defer l.settle()
	defer writer.Close()

	log := trace.Logger(ctx).With("session", sess.ID)
	log.Info("capture loop started",
		"region", sess.Options.Region.String(),
		"language", sess.Options.Language,
		"interval_min", interval.Min(),
		"interval_max", interval.Max())

	l.latch.Reset()
	l.latch.WithHook(func() {
		log.Error("capture area unreachable, ending session")
	})
	filter := textproc.NewLiveFilter(l.cfg.SimilarityThreshold)

	var (
		lastHash     *goimagehash.ImageHash
		prevNorm     string
		similarCount int
		iteration    int
	)

	for {
		if iteration%l.cfg.AreaCheckEvery == 0 {
			if err := l.validator.Validate(ctx, sess.Options.Region); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("area validation failed", "error", err, "consecutive", l.latch.Failures()+1)
				if l.latch.Failure() {
					l.notifier.Status(sess.ID, "disconnected")
					return
				}
			} else {
				l.latch.Success()
			}
		}
		iteration++

		emitted, skipHash, err := l.iterate(ctx, sess, writer, filter, lastHash, &prevNorm)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			l.notifier.Status(sess.ID, "error: "+err.Error())
			if !errors.IsRetryable(err) {
				// Writer failures and the like; another tick cannot help.
				log.Error("capture iteration failed, ending session", "error", err)
				return
			}
			log.Warn("capture iteration failed", "error", err)
			if !sleepCtx(ctx, errorBackoff) {
				return
			}
			continue
		case emitted:
			similarCount = 0
			interval.Reset()
		default:
			similarCount++
			if similarCount >= l.cfg.MaxSimilarCaptures {
				interval.Increase()
				log.Debug("interval increased", "interval", interval.Current(), "similar", similarCount)
			}
		}
		if skipHash != nil {
			lastHash = skipHash
		}

		if !sleepCtx(ctx, interval.Wait()) {
			log.Info("capture loop stopped", "records", writer.Count())
			return
		}
	}
}

// iterate performs one screenshot/OCR/filter cycle. It returns whether a
// record was emitted and the frame's pHash for the next comparison.
func (l *Loop) iterate(ctx context.Context, sess Session, writer *transcript.Writer, filter *textproc.LiveFilter, lastHash *goimagehash.ImageHash, prevNorm *string) (bool, *goimagehash.ImageHash, error) {
	img, err := l.grabber.Grab(ctx, sess.Options.Region)
	if err != nil {
		return false, nil, err
	}

	hash := perceptionHash(img)
	if hash != nil && lastHash != nil {
		if dist, err := lastHash.Distance(hash); err == nil && dist <= maxHashDistance {
			// Same pixels as last time; skip OCR and count the frame
			// as similar so the interval can back off.
			return false, hash, nil
		}
	}

	img = ocr.Downscale(img, l.cfg.MaxPixels)
	text, err := l.recognizer.Recognize(ctx, img)
	if err != nil {
		return false, hash, err
	}

	raw := textproc.CleanRaw(text)
	if raw == "" || textproc.IsUIArtifact(raw) {
		return false, hash, nil
	}

	norm := textproc.CleanNormalized(raw)
	if !filter.HasSignificantNewContent(norm, *prevNorm) {
		return false, hash, nil
	}

	if err := writer.Append(l.clock(), raw); err != nil {
		return false, hash, err
	}
	*prevNorm = norm
	l.notifier.TextCaptured(sess.ID, raw)
	return true, hash, nil
}

func perceptionHash(img image.Image) *goimagehash.ImageHash {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil
	}
	return hash
}

// sleepCtx waits for d or cancellation; false means canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
