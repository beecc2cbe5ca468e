package encoder

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/stbshim/internal/decoder"
)

func TestForFormat(t *testing.T) {
	type scenario struct {
		format   string
		expected string
	}

	scenarios := []scenario{
		{"png", "png"},
		{"jpeg", "jpeg"},
		{"jpg", "jpeg"},
	}

	img := Gradient(8, 4)
	for _, s := range scenarios {
		enc, err := ForFormat(s.format, 80)
		require.NoError(t, err)
		data, err := enc.Encode(img)
		require.NoError(t, err)
		assert.Equal(t, s.expected, decoder.Sniff(data))
	}

	_, err := ForFormat("tiff", 80)
	assert.EqualError(t, err, `unsupported sample format "tiff"`)
}

func TestJPEGQualityClamp(t *testing.T) {
	assert.Equal(t, 1, NewJPEGEncoder(-5).quality)
	assert.Equal(t, 100, NewJPEGEncoder(500).quality)

	e := NewJPEGEncoder(50)
	e.SetQuality(0)
	assert.Equal(t, 1, e.quality)
}

func TestJPEGRoundTripDimensions(t *testing.T) {
	data, err := NewJPEGEncoder(90).Encode(Gradient(16, 9))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 9, cfg.Height)
}

func TestGradient(t *testing.T) {
	img := Gradient(3, 2)
	assert.Equal(t, color.RGBA{0, 0, 0x80, 0xFF}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 255, 0x80, 0xFF}, img.RGBAAt(2, 1))

	one := Gradient(1, 1)
	assert.Equal(t, color.RGBA{0, 0, 0x80, 0xFF}, one.RGBAAt(0, 0))
}
