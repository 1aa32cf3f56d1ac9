// Package screen provides platform-agnostic region capture of the display.
package screen

import (
	"fmt"

	"github.com/captiocr/captiocr/internal/errors"
)

// MinDimension is the smallest selectable region edge in pixels. Anything
// narrower cannot hold a readable caption line.
const MinDimension = 70

// Rect is a screen-space capture region with inclusive top-left and
// exclusive bottom-right corners.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X1, r.Y1, r.Width(), r.Height())
}

// Normalize returns the rect with corners ordered so X1<=X2 and Y1<=Y2.
func (r Rect) Normalize() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Validate rejects regions too small to capture captions from.
func (r Rect) Validate() error {
	n := r.Normalize()
	if n.Width() < MinDimension || n.Height() < MinDimension {
		return errors.Newf(errors.CodeAreaInvalid,
			"capture area %dx%d is below the %dpx minimum", n.Width(), n.Height(), MinDimension)
	}
	return nil
}
