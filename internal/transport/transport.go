package transport

import "github.com/junsooki/stbshim/internal/signaling"

// FrameSender sends encoded image buffers.
type FrameSender interface {
	SendFrame(seq uint64, data []byte) error
}

// FrameReceiver receives encoded image buffers.
type FrameReceiver interface {
	OnFrame(callback func(seq uint64, data []byte))
}

// ReportSender sends decode reports.
type ReportSender interface {
	SendReport(report signaling.Report) error
}

// ReportReceiver receives decode reports.
type ReportReceiver interface {
	OnReport(callback func(report signaling.Report))
}
