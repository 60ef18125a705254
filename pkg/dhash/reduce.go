package dhash

import (
	"image"

	"golang.org/x/image/draw"
)

// areaAverage is a box kernel. On a shrink, x/image/draw widens the support by
// the scale factor, so every destination sample is the mean of the source
// pixels its footprint covers. The window is half open, which keeps integer
// scale factors from sharing edge pixels between neighboring samples and makes
// the 1:1 case an exact copy.
var areaAverage = &draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		if t >= -0.5 && t < 0.5 {
			return 1
		}
		return 0
	},
}

// Reduce scales img to a Columns x Rows grayscale grid with area averaging.
// An empty image yields a black grid.
func Reduce(img image.Image) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, Columns, Rows))

	src := img.Bounds()
	if src.Empty() {
		return dst
	}

	areaAverage.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
