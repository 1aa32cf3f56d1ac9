package textproc

import (
	"testing"
	"time"

	"github.com/captiocr/captiocr/internal/errors"
)

func TestIntervalScenario(t *testing.T) {
	// Bounds (3.0, 6.0): reset -> 3.0, two increases -> 4.0 -> 5.0,
	// reset -> 3.0 again.
	c, err := NewIntervalController(3.0, 6.0)
	if err != nil {
		t.Fatalf("NewIntervalController: %v", err)
	}

	if got := c.Reset(); got != 3.0 {
		t.Errorf("Reset() = %v, want 3.0", got)
	}
	if got := c.Increase(); got != 4.0 {
		t.Errorf("first Increase() = %v, want 4.0", got)
	}
	if got := c.Increase(); got != 5.0 {
		t.Errorf("second Increase() = %v, want 5.0", got)
	}
	if got := c.Reset(); got != 3.0 {
		t.Errorf("Reset() after increases = %v, want 3.0", got)
	}
}

func TestIntervalIncreaseCapped(t *testing.T) {
	c, _ := NewIntervalController(3.0, 4.5)
	c.Increase()
	if got := c.Increase(); got != 4.5 {
		t.Errorf("Increase() beyond max = %v, want 4.5", got)
	}
}

func TestIntervalDecreaseFloored(t *testing.T) {
	c, _ := NewIntervalController(3.0, 6.0)
	if got := c.Decrease(); got != 3.0 {
		t.Errorf("Decrease() at min = %v, want 3.0", got)
	}
	c.Increase()
	if got := c.Decrease(); got != 3.5 {
		t.Errorf("Decrease() = %v, want 3.5", got)
	}
}

func TestSetBoundsInvalid(t *testing.T) {
	c, _ := NewIntervalController(3.0, 6.0)
	c.Increase()

	tests := []struct {
		name     string
		min, max float64
	}{
		{"min equals max", 4.0, 4.0},
		{"min above max", 5.0, 4.0},
		{"min below floor", 0.2, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SetBounds(tt.min, tt.max)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.CodeConfigInvalid) {
				t.Errorf("error code = %v, want CONFIG_INVALID", err)
			}
			// Old bounds retained.
			if c.Min() != 3.0 || c.Max() != 6.0 {
				t.Errorf("bounds = (%v, %v), want (3.0, 6.0) retained", c.Min(), c.Max())
			}
		})
	}
}

func TestSetBoundsResetsCurrent(t *testing.T) {
	c, _ := NewIntervalController(3.0, 6.0)
	c.Increase()

	if err := c.SetBounds(2.0, 8.0); err != nil {
		t.Fatalf("SetBounds: %v", err)
	}
	if c.Current() != 2.0 {
		t.Errorf("Current() = %v, want reset to new min 2.0", c.Current())
	}
}

func TestNewIntervalControllerInvalid(t *testing.T) {
	if _, err := NewIntervalController(6.0, 3.0); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestWait(t *testing.T) {
	c, _ := NewIntervalController(3.0, 6.0)
	if got := c.Wait(); got != 3*time.Second {
		t.Errorf("Wait() = %v, want 3s", got)
	}
}
