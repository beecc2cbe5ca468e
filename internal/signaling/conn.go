package signaling

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is the server side of a probe connection. Writes are serialized so
// WebRTC callbacks and the read loop can reply concurrently.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Send writes msg as a JSON text message.
func (c *Conn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

// SendAnswer sends an SDP answer.
func (c *Conn) SendAnswer(payload json.RawMessage) error {
	return c.Send(Message{Type: TypeAnswer, Payload: payload})
}

// SendICECandidate sends a local ICE candidate.
func (c *Conn) SendICECandidate(payload json.RawMessage) error {
	return c.Send(Message{Type: TypeICECandidate, Payload: payload})
}

// SendReport sends a decode report.
func (c *Conn) SendReport(report Report) error {
	return c.Send(Message{Type: TypeReport, Report: &report})
}

// SendError sends an error message.
func (c *Conn) SendError(msg string) error {
	return c.Send(Message{Type: TypeError, Msg: msg})
}

// ReadMessage reads the next raw message.
func (c *Conn) ReadMessage() (messageType int, data []byte, err error) {
	return c.ws.ReadMessage()
}

func (c *Conn) SetReadLimit(limit int64) {
	c.ws.SetReadLimit(limit)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
