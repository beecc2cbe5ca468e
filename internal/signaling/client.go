package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler callbacks for incoming server messages.
type Handler struct {
	OnRegistered   func()
	OnAnswer       func(payload json.RawMessage)
	OnICECandidate func(payload json.RawMessage)
	OnReport       func(report Report)
	OnStats        func(payload json.RawMessage)
	OnError        func(msg string)
}

// Client is a WebSocket client for the probe server.
type Client struct {
	url      string
	clientID string
	handler  Handler
	log      *logrus.Entry

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a probe client.
func NewClient(url, clientID string, handler Handler, log *logrus.Entry) *Client {
	return &Client{
		url:      url,
		clientID: clientID,
		handler:  handler,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Connect dials the server, registers and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("probe dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	err = c.send(Message{
		Type:       TypeRegister,
		ID:         c.clientID,
		ClientType: ClientTypeProbe,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("probe register: %w", err)
	}

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Done is closed once the connection is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer to the server.
func (c *Client) SendOffer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Payload: payload})
}

// SendICECandidate sends an ICE candidate to the server.
func (c *Client) SendICECandidate(payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, Payload: payload})
}

// RequestStats asks the server for its decode counters.
func (c *Client) RequestStats() error {
	return c.send(Message{Type: TypeStats})
}

// SendFrame submits an encoded buffer for decoding. The server answers
// with a report carrying the same seq.
func (c *Client) SendFrame(seq uint64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, EncodeFrame(seq, data))
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.WithError(err).Debug("probe read ended")
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeRegistered:
		if c.handler.OnRegistered != nil {
			c.handler.OnRegistered()
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.Payload)
		}
	case TypeReport:
		if c.handler.OnReport != nil && msg.Report != nil {
			c.handler.OnReport(*msg.Report)
		}
	case TypeStats:
		if c.handler.OnStats != nil {
			c.handler.OnStats(msg.Payload)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
		// heartbeat response, nothing to do
	default:
		c.log.WithField("type", msg.Type).Warn("unknown message from server")
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()})
		}
	}
}
