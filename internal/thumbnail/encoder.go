// Package thumbnail renders square-bounded preview images for assets.
package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Encoder renders a thumbnail from an original image blob.
type Encoder interface {
	// Encode decodes src, scales it to fit within size x size preserving
	// aspect ratio, and re-encodes it. Returns the encoded bytes and the
	// resulting dimensions.
	Encode(src []byte, size, quality int) ([]byte, int, int, error)

	// Format names the output encoding, e.g. "jpeg".
	Format() string
}

// NewEncoder selects an encoder for the configured output format.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return NewJPEGEncoder(), nil
	case "png":
		return NewPNGEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported thumbnail format %q", format)
	}
}

// JPEGEncoder produces JPEG thumbnails with Lanczos resampling.
type JPEGEncoder struct{}

// NewJPEGEncoder creates a JPEG thumbnail encoder.
func NewJPEGEncoder() *JPEGEncoder {
	return &JPEGEncoder{}
}

func (e *JPEGEncoder) Format() string { return "jpeg" }

func (e *JPEGEncoder) Encode(src []byte, size, quality int) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)
	bounds := thumb.Bounds()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// PNGEncoder produces PNG thumbnails; quality does not apply to PNG.
type PNGEncoder struct{}

// NewPNGEncoder creates a PNG thumbnail encoder.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

func (e *PNGEncoder) Format() string { return "png" }

func (e *PNGEncoder) Encode(src []byte, size, _ int) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)
	bounds := thumb.Bounds()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
