package encoder

import (
	"bytes"
	"image"
	"image/png"
)

// PNGEncoder encodes sample images as PNG. Quality is ignored.
type PNGEncoder struct {
	enc png.Encoder
}

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{enc: png.Encoder{CompressionLevel: png.BestSpeed}}
}

func (e *PNGEncoder) SetQuality(int) {}

func (e *PNGEncoder) Encode(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
