package encoder

import (
	"bytes"
	"image"
	"image/jpeg"
)

// JPEGEncoder encodes sample images as JPEG.
type JPEGEncoder struct {
	quality int
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
func NewJPEGEncoder(quality int) *JPEGEncoder {
	e := &JPEGEncoder{}
	e.SetQuality(quality)
	return e
}

// SetQuality sets the quality, clamped to 1-100.
func (e *JPEGEncoder) SetQuality(quality int) {
	e.quality = min(max(quality, 1), 100)
}

func (e *JPEGEncoder) Encode(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 * 1024)
	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
