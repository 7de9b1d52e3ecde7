package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	// Registers image/webp with image.Decode; imaging covers jpeg, png and gif.
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailMaxWidth and ThumbnailMaxHeight bound asset previews shown
	// in the template editor.
	ThumbnailMaxWidth  = 320
	ThumbnailMaxHeight = 320

	thumbnailJPEGQuality = 85
)

// ThumbnailProcessor handles thumbnail generation from images.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a JPEG thumbnail that fits within
	// maxWidth x maxHeight, preserving aspect ratio. Returns the thumbnail
	// bytes and the original width and height.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

// imagingProcessor implements ThumbnailProcessor using the imaging library.
type imagingProcessor struct{}

// NewImagingProcessor creates a new thumbnail processor using the imaging library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()

	// Logos are often transparent PNGs; flatten onto white so JPEG does not
	// turn the transparent area black.
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), image.White)
	canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	thumbnail := imaging.Fit(canvas, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
