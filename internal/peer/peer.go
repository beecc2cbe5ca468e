package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// NewPeerConnection creates a PeerConnection using the given STUN/TURN URLs.
func NewPeerConnection(iceServers []string, log *logrus.Entry) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.WithField("state", state.String()).Info("peer connection state changed")
	})
	return pc, nil
}

func marshalCandidate(c *webrtc.ICECandidate) ([]byte, error) {
	return json.Marshal(c.ToJSON())
}

func unmarshalCandidate(payload []byte) (webrtc.ICECandidateInit, error) {
	var candidate webrtc.ICECandidateInit
	err := json.Unmarshal(payload, &candidate)
	return candidate, err
}
