package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameHeader(t *testing.T) {
	frame := EncodeFrame(0x0102030405060708, []byte{0xAA, 0xBB})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xAA, 0xBB}, frame)

	seq, data, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), seq)
	assert.Equal(t, []byte{0xAA, 0xBB}, data)

	seq, data, err = DecodeFrame(EncodeFrame(7, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
	assert.Empty(t, data)

	_, _, err = DecodeFrame([]byte{1, 2, 3})
	assert.EqualError(t, err, "frame too short: 3 bytes")
}

func TestReportWireFormat(t *testing.T) {
	msg := Message{Type: TypeReport, Report: &Report{Seq: 2, Bytes: 10, Format: "png", Error: "decode failed"}}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "report",
		"report": {"seq": 2, "bytes": 10, "format": "png", "width": 0, "height": 0, "channels": 0, "ok": false, "error": "decode failed"}
	}`, string(data))
}
