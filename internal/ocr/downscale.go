package ocr

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// Downscale shrinks large frames before recognition. High-DPI selections
// slow tesseract down without improving caption accuracy, so anything over
// maxPixels is resized proportionally to fit.
func Downscale(img image.Image, maxPixels int) image.Image {
	if maxPixels <= 0 {
		return img
	}
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels <= maxPixels {
		return img
	}
	scale := math.Sqrt(float64(maxPixels) / float64(pixels))
	width := uint(math.Max(1, float64(bounds.Dx())*scale))
	return resize.Resize(width, 0, img, resize.Lanczos3)
}
