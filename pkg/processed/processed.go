// Package processed holds the record produced by hashing one image, and its
// document form as stored in an index.
package processed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
)

// Image is a hashed image. It is built in one step by New and never changes.
type Image struct {
	source        string
	receivedBytes int
	pixelCount    int
	fingerprint   dhash.Fingerprint
}

// New seals a processed image. Source must be set and both counts must be
// non-negative.
func New(source string, receivedBytes, pixelCount int, fp dhash.Fingerprint) (*Image, error) {
	if source == "" {
		return nil, errors.New("processed image needs a source identifier")
	}
	if receivedBytes < 0 {
		return nil, fmt.Errorf("received bytes must not be negative, got %d", receivedBytes)
	}
	if pixelCount < 0 {
		return nil, fmt.Errorf("pixel count must not be negative, got %d", pixelCount)
	}

	return &Image{
		source:        source,
		receivedBytes: receivedBytes,
		pixelCount:    pixelCount,
		fingerprint:   fp,
	}, nil
}

// Source is the URL the image was fetched from, or source.InlineIdentifier.
func (i *Image) Source() string { return i.source }

// ReceivedBytes is the size of the encoded payload.
func (i *Image) ReceivedBytes() int { return i.receivedBytes }

// PixelCount is width x height of the decoded image.
func (i *Image) PixelCount() int { return i.pixelCount }

// Fingerprint is the image's difference hash.
func (i *Image) Fingerprint() dhash.Fingerprint { return i.fingerprint }

// Document returns the index representation of the image.
func (i *Image) Document() Document {
	return Document{
		ReceivedBytes: i.receivedBytes,
		ImageURL:      i.source,
		NumPixels:     i.pixelCount,
		DHash:         i.fingerprint,
	}
}

// Marshal serializes the document form.
func (i *Image) Marshal() ([]byte, error) {
	return json.Marshal(i.Document())
}

// Document is the stored shape of a processed image. Field names are shared
// with existing indexes and must not change.
type Document struct {
	ReceivedBytes int               `json:"receivedBytes"`
	ImageURL      string            `json:"imageUrl"`
	NumPixels     int               `json:"numPixels"`
	DHash         dhash.Fingerprint `json:"dHash"`
}

// ParseDocument reads a stored document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing processed image document: %w", err)
	}
	return &doc, nil
}
