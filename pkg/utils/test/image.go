package testutils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// GradientFingerprint is the difference hash of any Gradient image at least
// 8 pixels wide and 9 tall.
const GradientFingerprint = 0xffff_ffff_0000_0000

// Stripes returns a w×h grayscale image of horizontal black and white
// stripes, each thick pixels tall. Every column of the image is the same.
func Stripes(w, h, thick int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		if (y/thick)%2 == 0 {
			continue
		}
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

// Gradient returns a w×h color image whose left half darkens from top to
// bottom and whose right half brightens, so its fingerprint is
// GradientFingerprint.
func Gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		v := uint8(y * 255 / max(h-1, 1))
		for x := range w {
			if x < w/2 {
				img.SetRGBA(x, y, color.RGBA{R: 255 - v, G: 255 - v, B: (255 - v) / 2, A: 255})
				continue
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v / 2, A: 255})
		}
	}
	return img
}

// JPEG encodes img at full quality.
func JPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes img as PNG.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
