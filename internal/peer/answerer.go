package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/transport"
)

// AnswerSignaler relays the answering side's SDP and ICE candidates.
type AnswerSignaler interface {
	SendAnswer(payload json.RawMessage) error
	SendICECandidate(payload json.RawMessage) error
}

// Answerer manages the server side of a probe's WebRTC connection. The
// probe creates the data channels; the answerer adopts them as they arrive.
type Answerer struct {
	pc        *webrtc.PeerConnection
	sig       AnswerSignaler
	transport *transport.DataChannelTransport
	log       *logrus.Entry
}

// NewAnswerer creates an Answerer.
func NewAnswerer(sig AnswerSignaler, iceServers []string, log *logrus.Entry) (*Answerer, error) {
	pc, err := NewPeerConnection(iceServers, log)
	if err != nil {
		return nil, err
	}

	a := &Answerer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil, nil, log),
		log:       log,
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		log.WithField("label", dc.Label()).Debug("data channel received")
		switch dc.Label() {
		case transport.FramesLabel:
			a.transport.SetFramesChannel(dc)
		case transport.ReportsLabel:
			a.transport.SetReportsChannel(dc)
		default:
			log.WithField("label", dc.Label()).Warn("ignoring unknown data channel")
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := marshalCandidate(c)
		if err != nil {
			log.WithError(err).Error("marshal ICE candidate")
			return
		}
		_ = sig.SendICECandidate(data)
	})

	return a, nil
}

// Transport returns the DataChannelTransport for receiving frames and sending reports.
func (a *Answerer) Transport() *transport.DataChannelTransport {
	return a.transport
}

// HandleOffer applies the probe's offer and replies with an answer.
func (a *Answerer) HandleOffer(payload []byte) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}

	if err := a.pc.SetRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := a.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}

	if err := a.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}

	return a.sig.SendAnswer(answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (a *Answerer) HandleICECandidate(payload []byte) error {
	candidate, err := unmarshalCandidate(payload)
	if err != nil {
		return err
	}
	return a.pc.AddICECandidate(candidate)
}

// Close shuts down the peer connection.
func (a *Answerer) Close() {
	if a.pc != nil {
		a.pc.Close()
	}
}
