package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/junsooki/stbshim/internal/log"
	"github.com/junsooki/stbshim/internal/signaling"
)

var (
	_ FrameSender    = (*DataChannelTransport)(nil)
	_ FrameReceiver  = (*DataChannelTransport)(nil)
	_ ReportSender   = (*DataChannelTransport)(nil)
	_ ReportReceiver = (*DataChannelTransport)(nil)
)

func TestSendWithoutChannels(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil, log.Discard())
	assert.EqualError(t, tr.SendFrame(1, []byte{1}), "frames data channel not set")
	assert.EqualError(t, tr.SendReport(signaling.Report{Seq: 1}), "reports data channel not set")
}

func TestHandleFrame(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil, log.Discard())

	// No callback registered yet.
	tr.handleFrame(signaling.EncodeFrame(1, []byte{1}))

	var gotSeq uint64
	var gotData []byte
	calls := 0
	tr.OnFrame(func(seq uint64, data []byte) {
		calls++
		gotSeq, gotData = seq, data
	})

	tr.handleFrame(signaling.EncodeFrame(42, []byte("payload")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(42), gotSeq)
	assert.Equal(t, []byte("payload"), gotData)

	tr.handleFrame([]byte{0, 1})
	assert.Equal(t, 1, calls)
}

func TestHandleReport(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil, log.Discard())

	var got []signaling.Report
	tr.OnReport(func(r signaling.Report) {
		got = append(got, r)
	})

	tr.handleReport([]byte(`{"seq":3,"bytes":12,"format":"png","ok":false,"error":"decode failed"}`))
	tr.handleReport([]byte(`not json`))

	assert.Equal(t, []signaling.Report{{Seq: 3, Bytes: 12, Format: "png", Error: "decode failed"}}, got)
}
