package encoder

import (
	"image"

	"github.com/go-errors/errors"
)

// Encoder encodes an image into bytes.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	SetQuality(quality int)
}

// ForFormat returns an encoder for "png" or "jpeg" ("jpg" is accepted).
func ForFormat(format string, quality int) (Encoder, error) {
	switch format {
	case "png":
		return NewPNGEncoder(), nil
	case "jpeg", "jpg":
		return NewJPEGEncoder(quality), nil
	}
	return nil, errors.Errorf("unsupported sample format %q", format)
}

// Gradient returns a w x h test pattern: red rises left to right, green
// top to bottom, blue is constant.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x * 255 / max(w-1, 1))
			img.Pix[i+1] = uint8(y * 255 / max(h-1, 1))
			img.Pix[i+2] = 0x80
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}
