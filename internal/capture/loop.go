package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/captiocr/captiocr/internal/config"
	"github.com/captiocr/captiocr/internal/errors"
	"github.com/captiocr/captiocr/internal/resilience"
	"github.com/captiocr/captiocr/internal/screen"
	"github.com/captiocr/captiocr/internal/syncx"
	"github.com/captiocr/captiocr/internal/textproc"
	"github.com/captiocr/captiocr/internal/trace"
	"github.com/captiocr/captiocr/internal/transcript"
)

// Options selects what and how a session captures.
type Options struct {
	Region      screen.Rect
	Language    string
	CaptionMode bool
}

// Session is the immutable record of one capture run.
type Session struct {
	ID        string
	StartedAt time.Time
	Options   Options
	RawPath   string
}

// Loop drives capture sessions. One Loop runs at most one session at a
// time; Start while running returns ALREADY_RUNNING.
type Loop struct {
	cfg        config.Capture
	outputDir  string
	grabber    screen.Grabber
	recognizer Recognizer
	validator  screen.Validator
	notifier   Notifier
	clock      func() time.Time
	latch      *resilience.Latch

	// mu serializes Start and Stop; concurrent callers must never both
	// observe a startable state and spawn two workers.
	mu      sync.Mutex
	state   *syncx.RWGuard[State]
	session *syncx.RWGuard[Session]
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLoop wires a capture loop. A nil notifier is replaced with a no-op.
func NewLoop(cfg config.Capture, outputDir string, grabber screen.Grabber, recognizer Recognizer, validator screen.Validator, notifier Notifier) *Loop {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.AreaCheckEvery < 1 {
		cfg.AreaCheckEvery = config.DefaultAreaCheckEvery
	}
	if cfg.MaxSimilarCaptures < 1 {
		cfg.MaxSimilarCaptures = config.DefaultMaxSimilarCaptures
	}
	return &Loop{
		cfg:        cfg,
		outputDir:  outputDir,
		grabber:    grabber,
		recognizer: recognizer,
		validator:  validator,
		notifier:   notifier,
		clock:      time.Now,
		latch:      resilience.NewLatch(areaFailureLimit),
		state:      syncx.NewGuard(StateIdle),
		session:    syncx.NewGuard(Session{}),
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State { return l.state.Get() }

// Session returns the current (or most recent) session record.
func (l *Loop) Session() Session { return l.session.Get() }

// Start validates the region, writes the raw file header, and spawns the
// worker. It returns the new session immediately; capture continues until
// Stop or a terminal failure.
func (l *Loop) Start(ctx context.Context, opts Options) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s := l.state.Get(); s == StateRunning || s == StateStopping {
		return Session{}, errors.New(errors.CodeAlreadyRunning, "capture session already active")
	}
	if err := opts.Region.Validate(); err != nil {
		return Session{}, err
	}
	if opts.Language == "" {
		opts.Language = config.DefaultLanguage
	}

	interval, err := textproc.NewIntervalController(l.cfg.MinInterval, l.cfg.MaxInterval)
	if err != nil {
		return Session{}, err
	}

	started := l.clock()
	id := uuid.NewString()
	rawPath := filepath.Join(l.outputDir,
		fmt.Sprintf("capture_%s_raw.txt", started.Format("20060102_150405")))

	writer, err := transcript.NewWriter(rawPath, transcript.Header{
		Started:             started,
		Language:            opts.Language,
		CaptionMode:         opts.CaptionMode,
		SimilarityThreshold: l.cfg.SimilarityThreshold,
		MinInterval:         l.cfg.MinInterval,
		MaxInterval:         l.cfg.MaxInterval,
	})
	if err != nil {
		return Session{}, err
	}

	sess := Session{ID: id, StartedAt: started, Options: opts, RawPath: rawPath}
	l.session.Set(sess)
	l.state.Set(StateRunning)

	baseCtx, _ := trace.EnsureContext(context.WithoutCancel(ctx))
	runCtx, cancel := context.WithCancel(baseCtx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go func() {
		defer cancel()
		l.run(runCtx, sess, writer, interval)
	}()

	l.notifier.Status(id, "running")
	return sess, nil
}

// Stop cancels the worker, joins it with a bounded timeout, and returns
// the raw file path after a short grace delay so the last write is
// flushed. A worker that already exited on its own (area latch tripped)
// has left StateRunning, so Stop reports NOT_RUNNING instead of joining
// a ghost.
func (l *Loop) Stop(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s := l.state.Get(); s != StateRunning {
		return "", errors.Newf(errors.CodeNotRunning, "no active capture session (state %s)", s)
	}
	l.state.Set(StateStopping)
	l.cancel()

	select {
	case <-l.done:
	case <-time.After(stopJoinTimeout):
		trace.Logger(ctx).Warn("capture worker did not exit in time")
	case <-ctx.Done():
		return "", ctx.Err()
	}
	time.Sleep(stopGraceDelay)

	l.state.Set(StateStopped)
	sess := l.session.Get()
	l.notifier.Status(sess.ID, "stopped")
	return sess.RawPath, nil
}

// settle moves a worker that exited on its own out of StateRunning so a
// new session can start. When a Stop is mid-flight the state is already
// StateStopping and Stop owns the final transition.
func (l *Loop) settle() {
	l.state.Update(func(s *State) any {
		if *s == StateRunning {
			*s = StateStopped
		}
		return nil
	})
}
