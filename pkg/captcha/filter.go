package captcha

import (
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	contrastBoost = 100
	threshold     = 150
)

// Preprocess writes a cleaned copy of the captcha at in to out: grayscale,
// boosted contrast, then a hard black/white threshold.
func Preprocess(in, out string) error {
	img, err := imaging.Open(in)
	if err != nil {
		return fmt.Errorf("opening captcha image %q: %w", in, err)
	}

	gray := imaging.Grayscale(img)
	contrasted := imaging.AdjustContrast(gray, contrastBoost)
	bw := imaging.AdjustFunc(contrasted, func(c color.NRGBA) color.NRGBA {
		var v uint8
		if c.R > threshold {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})

	if err := imaging.Save(bw, out); err != nil {
		return fmt.Errorf("saving processed captcha %q: %w", out, err)
	}
	return nil
}
