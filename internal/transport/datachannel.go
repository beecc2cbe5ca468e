package transport

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/signaling"
)

// Data channel labels.
const (
	FramesLabel  = "frames"
	ReportsLabel = "reports"
)

// DataChannelTransport carries frames and reports over two WebRTC DataChannels.
type DataChannelTransport struct {
	mu        sync.RWMutex
	framesDC  *webrtc.DataChannel
	reportsDC *webrtc.DataChannel

	onFrame  func(seq uint64, data []byte)
	onReport func(report signaling.Report)

	log *logrus.Entry
}

// NewDataChannelTransport wraps the frames and reports DataChannels. Either
// may be nil and set later once negotiated.
func NewDataChannelTransport(framesDC, reportsDC *webrtc.DataChannel, log *logrus.Entry) *DataChannelTransport {
	t := &DataChannelTransport{log: log}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if reportsDC != nil {
		t.SetReportsChannel(reportsDC)
	}
	return t
}

func (t *DataChannelTransport) SendFrame(seq uint64, data []byte) error {
	t.mu.RLock()
	dc := t.framesDC
	t.mu.RUnlock()
	if dc == nil {
		return fmt.Errorf("frames data channel not set")
	}
	return dc.Send(signaling.EncodeFrame(seq, data))
}

func (t *DataChannelTransport) SendReport(report signaling.Report) error {
	t.mu.RLock()
	dc := t.reportsDC
	t.mu.RUnlock()
	if dc == nil {
		return fmt.Errorf("reports data channel not set")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return dc.SendText(string(data))
}

func (t *DataChannelTransport) OnFrame(cb func(seq uint64, data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnReport(cb func(report signaling.Report)) {
	t.mu.Lock()
	t.onReport = cb
	t.mu.Unlock()
}

// SetFramesChannel sets or replaces the frames DataChannel (used when receiving negotiated channels).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.handleFrame(msg.Data)
	})
}

// SetReportsChannel sets or replaces the reports DataChannel.
func (t *DataChannelTransport) SetReportsChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.reportsDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.handleReport(msg.Data)
	})
}

func (t *DataChannelTransport) handleFrame(data []byte) {
	t.mu.RLock()
	cb := t.onFrame
	t.mu.RUnlock()
	if cb == nil {
		return
	}
	seq, payload, err := signaling.DecodeFrame(data)
	if err != nil {
		t.log.WithError(err).Warn("dropping frame")
		return
	}
	cb(seq, payload)
}

func (t *DataChannelTransport) handleReport(data []byte) {
	t.mu.RLock()
	cb := t.onReport
	t.mu.RUnlock()
	if cb == nil {
		return
	}
	var report signaling.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.log.WithError(err).Warn("dropping report")
		return
	}
	cb(report)
}
