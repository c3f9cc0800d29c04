package scorer

import (
	"context"

	"github.com/disintegration/imaging"
)

// RedMask scores an image by the share of strongly red pixels. Debris markers
// in the survey imagery are red, so the red fraction stands in for debris
// density. The fraction is doubled and capped at 100 to spread the score
// distribution.
type RedMask struct {
	// RedThreshold is the minimum red channel value for a pixel to count.
	RedThreshold uint8
	// OtherThreshold is the maximum green/blue channel value for a pixel to
	// count.
	OtherThreshold uint8
}

// NewRedMask returns a scorer with the standard thresholds.
func NewRedMask() *RedMask {
	return &RedMask{RedThreshold: 150, OtherThreshold: 100}
}

// Score decodes the image and returns the capped red-pixel percentage.
func (s *RedMask) Score(ctx context.Context, imagePath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &ScoreError{Path: imagePath, Err: err}
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return 0, &ScoreError{Path: imagePath, Err: err}
	}

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0, nil
	}

	redHi := uint32(s.RedThreshold) << 8
	otherLo := uint32(s.OtherThreshold) << 8

	var red int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r > redHi && g < otherLo && b < otherLo {
				red++
			}
		}
	}

	score := red * 100 * 2 / total
	if score > 100 {
		score = 100
	}
	return score, nil
}
