package signaling

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Message types for the probe protocol.
const (
	TypeRegister     = "register"
	TypeRegistered   = "registered"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeReport       = "report"
	TypeStats        = "stats"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// ClientTypeProbe is the only client type the server accepts.
const ClientTypeProbe = "probe"

// Message is the envelope for all JSON text messages. Encoded buffers
// travel as binary frames instead (see EncodeFrame).
type Message struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	ClientType string          `json:"clientType,omitempty"`
	From       string          `json:"from,omitempty"`
	Target     string          `json:"target,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Report     *Report         `json:"report,omitempty"`
	Msg        string          `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// Report is the server's answer to one submitted buffer.
type Report struct {
	Seq      uint64 `json:"seq"`
	Bytes    int    `json:"bytes"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// frameHeaderLen is the size of the big-endian sequence number that
// prefixes every binary frame.
const frameHeaderLen = 8

// EncodeFrame prefixes data with seq.
func EncodeFrame(seq uint64, data []byte) []byte {
	frame := make([]byte, frameHeaderLen+len(data))
	binary.BigEndian.PutUint64(frame, seq)
	copy(frame[frameHeaderLen:], data)
	return frame
}

// DecodeFrame splits a binary frame into its sequence number and payload.
// The payload aliases frame.
func DecodeFrame(frame []byte) (uint64, []byte, error) {
	if len(frame) < frameHeaderLen {
		return 0, nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}
	return binary.BigEndian.Uint64(frame), frame[frameHeaderLen:], nil
}
