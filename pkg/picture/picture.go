// Package picture decodes encoded image payloads into pixel grids.
package picture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
)

// ErrDecode is returned when a payload is not a well-formed JPEG image.
var ErrDecode = errors.New("could not decode image")

// Picture is a decoded image together with the size of the payload it came from.
type Picture struct {
	Image image.Image

	// Size is the length in bytes of the encoded payload.
	Size int
}

// Decode decodes a JPEG payload. Failures wrap ErrDecode.
func Decode(data []byte) (*Picture, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &Picture{Image: img, Size: len(data)}, nil
}

// Width of the decoded image in pixels.
func (p *Picture) Width() int {
	return p.Image.Bounds().Dx()
}

// Height of the decoded image in pixels.
func (p *Picture) Height() int {
	return p.Image.Bounds().Dy()
}

// PixelCount is Width x Height.
func (p *Picture) PixelCount() int {
	return p.Width() * p.Height()
}
