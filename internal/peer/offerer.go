package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/transport"
)

// OfferSignaler relays the offering side's SDP and ICE candidates.
type OfferSignaler interface {
	SendOffer(payload json.RawMessage) error
	SendICECandidate(payload json.RawMessage) error
}

// Offerer manages the probe side of the WebRTC connection.
type Offerer struct {
	pc        *webrtc.PeerConnection
	sig       OfferSignaler
	transport *transport.DataChannelTransport
	log       *logrus.Entry

	ready     chan struct{}
	readyOnce sync.Once

	mu         sync.Mutex
	answered   bool
	candidates []webrtc.ICECandidateInit // remote candidates received before the answer
}

// NewOfferer creates an Offerer with ordered "frames" and "reports" channels.
func NewOfferer(sig OfferSignaler, iceServers []string, log *logrus.Entry) (*Offerer, error) {
	pc, err := NewPeerConnection(iceServers, log)
	if err != nil {
		return nil, err
	}

	o := &Offerer{
		pc:    pc,
		sig:   sig,
		log:   log,
		ready: make(chan struct{}),
	}

	ordered := true
	framesDC, err := pc.CreateDataChannel(transport.FramesLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}
	reportsDC, err := pc.CreateDataChannel(transport.ReportsLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}

	var opened sync.WaitGroup
	opened.Add(2)
	framesDC.OnOpen(opened.Done)
	reportsDC.OnOpen(opened.Done)
	go func() {
		opened.Wait()
		o.readyOnce.Do(func() { close(o.ready) })
	}()

	o.transport = transport.NewDataChannelTransport(framesDC, reportsDC, log)

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

	return o, nil
}

// Transport returns the DataChannelTransport.
func (o *Offerer) Transport() *transport.DataChannelTransport {
	return o.transport
}

// Ready is closed once both data channels are open.
func (o *Offerer) Ready() <-chan struct{} {
	return o.ready
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (o *Offerer) Connect() error {
	offer, err := o.pc.CreateOffer(nil)
	if err != nil {
		return err
	}

	if err := o.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}

	return o.sig.SendOffer(offerJSON)
}

// HandleAnswer applies the server's answer and flushes queued candidates.
func (o *Offerer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	if err := o.pc.SetRemoteDescription(answer); err != nil {
		return err
	}

	o.mu.Lock()
	o.answered = true
	pending := o.candidates
	o.candidates = nil
	o.mu.Unlock()

	for _, c := range pending {
		if err := o.pc.AddICECandidate(c); err != nil {
			o.log.WithError(err).Warn("add queued ICE candidate")
		}
	}
	return nil
}

// HandleICECandidate adds a remote ICE candidate, queueing it if the
// answer has not arrived yet.
func (o *Offerer) HandleICECandidate(payload json.RawMessage) error {
	candidate, err := unmarshalCandidate(payload)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if !o.answered {
		o.candidates = append(o.candidates, candidate)
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()
	return o.pc.AddICECandidate(candidate)
}

// Close shuts down the peer connection.
func (o *Offerer) Close() {
	if o.pc != nil {
		o.pc.Close()
	}
}
