package textproc

import (
	"log/slog"
	"time"

	"github.com/captiocr/captiocr/internal/errors"
)

// IntervalController is the adaptive polling-interval state machine for the
// capture loop. Invariant: min <= current <= max, min >= IntervalFloor.
// It is mutated only by the capture goroutine.
type IntervalController struct {
	min     float64
	max     float64
	current float64
}

// NewIntervalController creates a controller with the given bounds in
// seconds, current set to min. Fails with CONFIG_INVALID on bad bounds.
func NewIntervalController(min, max float64) (*IntervalController, error) {
	c := &IntervalController{
		min:     DefaultMinInterval,
		max:     DefaultMaxInterval,
		current: DefaultMinInterval,
	}
	if err := c.SetBounds(min, max); err != nil {
		return nil, err
	}
	return c, nil
}

// SetBounds replaces the interval bounds. On invalid input the old bounds
// are retained and a CONFIG_INVALID error is returned. Valid bounds reset
// current to min.
func (c *IntervalController) SetBounds(min, max float64) error {
	if min >= max {
		return errors.Newf(errors.CodeConfigInvalid,
			"minimum interval %.1fs must be smaller than maximum %.1fs", min, max)
	}
	if min < IntervalFloor {
		return errors.Newf(errors.CodeConfigInvalid,
			"minimum interval %.1fs cannot be less than %.1fs", min, IntervalFloor)
	}
	c.min = min
	c.max = max
	c.current = min
	slog.Debug("capture interval bounds updated", "min", min, "max", max)
	return nil
}

// Reset returns the interval to the minimum.
func (c *IntervalController) Reset() float64 {
	c.current = c.min
	return c.current
}

// Increase backs the interval off by one step, capped at the maximum.
func (c *IntervalController) Increase() float64 {
	c.current = minFloat(c.current+IntervalIncreaseStep, c.max)
	return c.current
}

// Decrease speeds the interval up by half a step, floored at the minimum.
func (c *IntervalController) Decrease() float64 {
	c.current = maxFloat(c.current-IntervalDecreaseStep, c.min)
	return c.current
}

// Current returns the current interval in seconds.
func (c *IntervalController) Current() float64 { return c.current }

// Min returns the minimum bound in seconds.
func (c *IntervalController) Min() float64 { return c.min }

// Max returns the maximum bound in seconds.
func (c *IntervalController) Max() float64 { return c.max }

// Wait returns the current interval as a duration for the loop's
// cancellable sleep.
func (c *IntervalController) Wait() time.Duration {
	return time.Duration(c.current * float64(time.Second))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
