package decoder

import (
	"image"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/stbi"
)

// MemoryDecoder decodes in-memory buffers through the stbi loader.
type MemoryDecoder struct {
	desiredChannels int
	log             *logrus.Entry
}

// NewMemoryDecoder creates a decoder that asks the loader for
// desiredChannels channels per pixel (0 keeps the file's count).
func NewMemoryDecoder(desiredChannels int, log *logrus.Entry) *MemoryDecoder {
	if desiredChannels < stbi.Default || desiredChannels > stbi.RGBAlpha {
		desiredChannels = stbi.Default
	}
	return &MemoryDecoder{desiredChannels: desiredChannels, log: log}
}

// DecodeInfo runs the loader over data. On success the returned pixel
// buffer is owned by the caller and must be passed to stbi.ImageFree.
// On failure Info is zeroed and the error wraps ErrDecodeFailed.
func (d *MemoryDecoder) DecodeInfo(data []byte) (Info, []byte, error) {
	var info Info
	if len(data) == 0 {
		return info, nil, errors.WrapPrefix(ErrDecodeFailed, "empty buffer", 0)
	}

	pix := stbi.LoadFromMemory(data, len(data), &info.Width, &info.Height, &info.Channels, d.desiredChannels)
	if pix == nil {
		d.log.WithFields(logrus.Fields{
			"bytes":  len(data),
			"format": Sniff(data),
		}).Debug("loader returned no image")
		return Info{}, nil, errors.WrapPrefix(ErrDecodeFailed, stbi.FailureReason(), 0)
	}
	return info, pix, nil
}

// Decode decodes data into an RGBA image.
func (d *MemoryDecoder) Decode(data []byte) (*image.RGBA, error) {
	info, pix, err := d.DecodeInfo(data)
	if err != nil {
		return nil, err
	}
	defer stbi.ImageFree(pix)

	n := d.desiredChannels
	if n == stbi.Default {
		n = info.Channels
	}
	return toRGBA(info.Width, info.Height, n, pix)
}

// toRGBA copies a packed loader buffer with n channels per pixel into a
// new RGBA image.
func toRGBA(w, h, n int, pix []byte) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || n < 1 || n > 4 || len(pix) < w*h*n {
		return nil, errors.WrapPrefix(ErrDecodeFailed, "malformed pixel buffer", 0)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		src := pix[i*n : i*n+n]
		dst := img.Pix[i*4 : i*4+4]
		switch n {
		case stbi.Grey:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 0xFF
		case stbi.GreyAlpha:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		case stbi.RGB:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
		case stbi.RGBAlpha:
			copy(dst, src)
		}
	}
	return img, nil
}
