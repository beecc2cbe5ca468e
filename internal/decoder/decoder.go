package decoder

import (
	"bytes"
	"errors"
	"image"
)

// ErrDecodeFailed is returned for every buffer the loader rejects. Corrupt,
// unsupported and empty inputs are not distinguished.
var ErrDecodeFailed = errors.New("decode failed")

// Decoder decodes bytes into an image.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}

// Info describes a decoded image.
type Info struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
}

var signatures = []struct {
	format string
	magic  []byte
	offset int
}{
	{"png", []byte("\x89PNG\r\n\x1a\n"), 0},
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}, 0},
	{"gif", []byte("GIF8"), 0},
	{"bmp", []byte("BM"), 0},
	{"webp", []byte("WEBP"), 8},
}

// Sniff names the container format of data by its magic bytes, or "unknown".
// It is informational only.
func Sniff(data []byte) string {
	for _, s := range signatures {
		end := s.offset + len(s.magic)
		if len(data) >= end && bytes.Equal(data[s.offset:end], s.magic) {
			if s.format == "webp" && !bytes.HasPrefix(data, []byte("RIFF")) {
				continue
			}
			return s.format
		}
	}
	return "unknown"
}
