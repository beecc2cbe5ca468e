package decoder

import (
	"image/color"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/stbshim/internal/log"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDecodeInfoAlwaysFails(t *testing.T) {
	type scenario struct {
		name string
		data []byte
		msg  string
	}

	scenarios := []scenario{
		{"png", pngHeader, "not supported"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00}, "not supported"},
		{"garbage", []byte("hello world"), "not supported"},
		{"empty", []byte{}, "empty buffer"},
		{"nil", nil, "empty buffer"},
	}

	dec := NewMemoryDecoder(4, log.Discard())
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			info, pix, err := dec.DecodeInfo(s.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecodeFailed))
			assert.Contains(t, err.Error(), s.msg)
			assert.Nil(t, pix)
			assert.Equal(t, Info{}, info)
		})
	}
}

func TestDecode(t *testing.T) {
	var d Decoder = NewMemoryDecoder(0, log.Discard())
	img, err := d.Decode(pngHeader)
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrDecodeFailed))
}

func TestNewMemoryDecoderClampsChannels(t *testing.T) {
	assert.Equal(t, 0, NewMemoryDecoder(9, log.Discard()).desiredChannels)
	assert.Equal(t, 0, NewMemoryDecoder(-2, log.Discard()).desiredChannels)
	assert.Equal(t, 3, NewMemoryDecoder(3, log.Discard()).desiredChannels)
}

func TestToRGBA(t *testing.T) {
	type scenario struct {
		n        int
		pix      []byte
		expected color.RGBA
	}

	scenarios := []scenario{
		{1, []byte{10}, color.RGBA{10, 10, 10, 255}},
		{2, []byte{10, 20}, color.RGBA{10, 10, 10, 20}},
		{3, []byte{10, 20, 30}, color.RGBA{10, 20, 30, 255}},
		{4, []byte{10, 20, 30, 40}, color.RGBA{10, 20, 30, 40}},
	}

	for _, s := range scenarios {
		img, err := toRGBA(1, 1, s.n, s.pix)
		require.NoError(t, err)
		assert.Equal(t, s.expected, img.RGBAAt(0, 0))
	}
}

func TestToRGBAMalformed(t *testing.T) {
	_, err := toRGBA(2, 2, 4, make([]byte, 15))
	assert.True(t, errors.Is(err, ErrDecodeFailed))

	_, err = toRGBA(0, 1, 4, nil)
	assert.Error(t, err)

	_, err = toRGBA(1, 1, 5, make([]byte, 5))
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	scenarios := map[string][]byte{
		"png":     pngHeader,
		"jpeg":    {0xFF, 0xD8, 0xFF, 0xE0},
		"gif":     []byte("GIF89a"),
		"bmp":     []byte("BM\x00\x00"),
		"webp":    []byte("RIFF\x00\x00\x00\x00WEBPVP8 "),
		"unknown": []byte("XXXX\x00\x00\x00\x00WEBP"),
	}
	for expected, data := range scenarios {
		assert.Equal(t, expected, Sniff(data))
	}
	assert.Equal(t, "unknown", Sniff(nil))
}
