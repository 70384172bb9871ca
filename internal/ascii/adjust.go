package ascii

import (
	"image"

	"github.com/disintegration/imaging"
)

// Adjustments are optional tone corrections applied to a frame before it is
// reduced to gray. The zero value leaves frames untouched.
type Adjustments struct {
	// Gamma of 1.0 (or 0) keeps the original image; below 1 darkens, above 1 lightens.
	Gamma float64
	// Contrast and Brightness are percentages in [-100, 100].
	Contrast   float64
	Brightness float64
	Invert     bool
}

// IsZero reports whether applying a would change nothing.
func (a Adjustments) IsZero() bool {
	return (a.Gamma == 0 || a.Gamma == 1) && a.Contrast == 0 && a.Brightness == 0 && !a.Invert
}

// Apply runs the configured adjustments in a fixed order.
func (a Adjustments) Apply(img image.Image) image.Image {
	if a.IsZero() {
		return img
	}
	if a.Gamma != 0 && a.Gamma != 1 {
		img = imaging.AdjustGamma(img, a.Gamma)
	}
	if a.Brightness != 0 {
		img = imaging.AdjustBrightness(img, a.Brightness)
	}
	if a.Contrast != 0 {
		img = imaging.AdjustContrast(img, a.Contrast)
	}
	if a.Invert {
		img = imaging.Invert(img)
	}
	return img
}
