package probe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/junsooki/stbshim/internal/decoder"
	"github.com/junsooki/stbshim/internal/encoder"
	"github.com/junsooki/stbshim/internal/log"
	"github.com/junsooki/stbshim/internal/signaling"
)

func newTestService(maxBytes int) *Service {
	return NewService(decoder.NewMemoryDecoder(4, log.Discard()), maxBytes, log.Discard())
}

func TestHandleReportsFailure(t *testing.T) {
	svc := newTestService(0)

	png, err := encoder.NewPNGEncoder().Encode(encoder.Gradient(4, 4))
	assert.NoError(t, err)

	report := svc.Handle(7, png)
	assert.Equal(t, uint64(7), report.Seq)
	assert.Equal(t, len(png), report.Bytes)
	assert.Equal(t, "png", report.Format)
	assert.False(t, report.OK)
	assert.Zero(t, report.Width)
	assert.Zero(t, report.Height)
	assert.Zero(t, report.Channels)
	assert.Contains(t, report.Error, "decode failed")

	assert.Equal(t, Stats{Frames: 1, Bytes: uint64(len(png)), Failed: 1}, svc.Stats())
}

func TestHandleEmptyFrame(t *testing.T) {
	svc := newTestService(0)
	report := svc.Handle(1, nil)
	assert.Equal(t, signaling.Report{Seq: 1, Format: "unknown", Error: report.Error}, report)
	assert.Contains(t, report.Error, "empty buffer")
}

func TestHandleRejectsOversizedFrame(t *testing.T) {
	svc := newTestService(4)
	report := svc.Handle(2, []byte{1, 2, 3, 4, 5})
	assert.Equal(t, "frame exceeds 4 bytes", report.Error)
	assert.False(t, report.OK)
	assert.Equal(t, uint64(1), svc.Stats().Rejected)
	assert.Equal(t, uint64(0), svc.Stats().Failed)
}

func TestHandleConcurrent(t *testing.T) {
	svc := newTestService(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			svc.Handle(seq, []byte{0xFF, 0xD8, 0xFF})
		}(uint64(i))
	}
	wg.Wait()
	assert.Equal(t, Stats{Frames: 50, Bytes: 150, Failed: 50}, svc.Stats())
}
