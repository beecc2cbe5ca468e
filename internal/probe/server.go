package probe

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/config"
	"github.com/junsooki/stbshim/internal/peer"
	"github.com/junsooki/stbshim/internal/signaling"
	"github.com/junsooki/stbshim/internal/transport"
)

// readSlack covers JSON envelopes and SDP on top of the largest frame.
const readSlack = 64 << 10

// Server accepts probe connections over WebSocket. Buffers arrive either
// as binary WebSocket messages or over a WebRTC data channel negotiated
// on the same socket.
type Server struct {
	cfg      *config.ServerConfig
	svc      *Service
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewServer creates a Server.
func NewServer(cfg *config.ServerConfig, svc *Service, log *logrus.Entry) *Server {
	return &Server{
		cfg: cfg,
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Handler returns the server's routes: the WebSocket endpoint and
// config.HealthPath. cfg must have passed Validate.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.WSPath, s)
	mux.HandleFunc(config.HealthPath, s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.svc.Stats())
}

// ServeHTTP upgrades the request and runs a probe session until the peer
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failed, response already sent
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	conn := signaling.NewConn(ws)
	if s.cfg.MaxFrameBytes > 0 {
		conn.SetReadLimit(int64(s.cfg.MaxFrameBytes) + readSlack)
	}

	sess := &session{
		srv:  s,
		conn: conn,
		log:  s.log.WithField("remote", r.RemoteAddr),
	}
	sess.run()
}

type session struct {
	srv      *Server
	conn     *signaling.Conn
	id       string
	answerer *peer.Answerer
	log      *logrus.Entry
}

func (ss *session) run() {
	defer func() {
		if ss.answerer != nil {
			ss.answerer.Close()
		}
		ss.conn.Close()
		ss.log.Info("probe disconnected")
	}()

	for {
		mt, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.log.WithError(err).Warn("probe read error")
			}
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			ss.handleFrame(data)
		case websocket.TextMessage:
			var msg signaling.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = ss.conn.SendError("malformed message")
				continue
			}
			ss.handleMessage(msg)
		}
	}
}

func (ss *session) handleMessage(msg signaling.Message) {
	if msg.Type != signaling.TypeRegister && msg.Type != signaling.TypePing && ss.id == "" {
		_ = ss.conn.SendError("not registered")
		return
	}

	switch msg.Type {
	case signaling.TypeRegister:
		if msg.ClientType != signaling.ClientTypeProbe || msg.ID == "" {
			_ = ss.conn.SendError("register requires an id and clientType \"probe\"")
			return
		}
		ss.id = msg.ID
		ss.log = ss.log.WithField("probe", msg.ID)
		ss.log.Info("probe registered")
		_ = ss.conn.Send(signaling.Message{Type: signaling.TypeRegistered, ID: msg.ID})
	case signaling.TypeOffer:
		if err := ss.handleOffer(msg.Payload); err != nil {
			ss.log.WithError(err).Warn("handle offer")
			_ = ss.conn.SendError("offer rejected: " + err.Error())
		}
	case signaling.TypeICECandidate:
		if ss.answerer == nil {
			_ = ss.conn.SendError("ice-candidate before offer")
			return
		}
		if err := ss.answerer.HandleICECandidate(msg.Payload); err != nil {
			ss.log.WithError(err).Warn("handle ICE candidate")
		}
	case signaling.TypeStats:
		payload, err := json.Marshal(ss.srv.svc.Stats())
		if err != nil {
			return
		}
		_ = ss.conn.Send(signaling.Message{Type: signaling.TypeStats, Payload: payload})
	case signaling.TypePing:
		_ = ss.conn.Send(signaling.Message{Type: signaling.TypePong, Timestamp: msg.Timestamp})
	default:
		_ = ss.conn.SendError("unknown message type: " + msg.Type)
	}
}

func (ss *session) handleFrame(data []byte) {
	if ss.id == "" {
		_ = ss.conn.SendError("not registered")
		return
	}
	seq, payload, err := signaling.DecodeFrame(data)
	if err != nil {
		_ = ss.conn.SendError(err.Error())
		return
	}
	ss.reply(ss.conn, seq, payload)
}

// reply decodes one frame and sends its report back on tx.
func (ss *session) reply(tx transport.ReportSender, seq uint64, data []byte) {
	if err := tx.SendReport(ss.srv.svc.Handle(seq, data)); err != nil {
		ss.log.WithError(err).WithField("seq", seq).Warn("send report")
	}
}

// serve answers every frame arriving on rx with a report on tx.
func (ss *session) serve(rx transport.FrameReceiver, tx transport.ReportSender) {
	rx.OnFrame(func(seq uint64, data []byte) {
		ss.reply(tx, seq, data)
	})
}

func (ss *session) handleOffer(payload json.RawMessage) error {
	if ss.answerer != nil {
		ss.answerer.Close()
	}
	answerer, err := peer.NewAnswerer(ss.conn, ss.srv.cfg.ICEServers, ss.log)
	if err != nil {
		return err
	}
	ss.answerer = answerer

	tr := answerer.Transport()
	ss.serve(tr, tr)
	return answerer.HandleOffer(payload)
}
