package probe

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/decoder"
	"github.com/junsooki/stbshim/internal/signaling"
)

// Stats is a snapshot of the service counters.
type Stats struct {
	Frames   uint64 `json:"frames"`
	Bytes    uint64 `json:"bytes"`
	Decoded  uint64 `json:"decoded"`
	Failed   uint64 `json:"failed"`
	Rejected uint64 `json:"rejected"`
}

// Service decodes submitted buffers and produces reports. It is safe for
// concurrent use.
type Service struct {
	dec      *decoder.MemoryDecoder
	maxBytes int
	log      *logrus.Entry

	frames   atomic.Uint64
	bytes    atomic.Uint64
	decoded  atomic.Uint64
	failed   atomic.Uint64
	rejected atomic.Uint64
}

// NewService creates a Service. maxBytes <= 0 disables the size limit.
func NewService(dec *decoder.MemoryDecoder, maxBytes int, log *logrus.Entry) *Service {
	return &Service{dec: dec, maxBytes: maxBytes, log: log}
}

// Handle decodes one buffer.
func (s *Service) Handle(seq uint64, data []byte) signaling.Report {
	s.frames.Add(1)
	s.bytes.Add(uint64(len(data)))

	report := signaling.Report{
		Seq:    seq,
		Bytes:  len(data),
		Format: decoder.Sniff(data),
	}
	log := s.log.WithFields(logrus.Fields{"seq": seq, "bytes": len(data), "format": report.Format})

	if s.maxBytes > 0 && len(data) > s.maxBytes {
		s.rejected.Add(1)
		report.Error = fmt.Sprintf("frame exceeds %d bytes", s.maxBytes)
		log.Warn("frame rejected")
		return report
	}

	img, err := s.dec.Decode(data)
	if err != nil {
		s.failed.Add(1)
		report.Error = err.Error()
		log.WithError(err).Debug("decode failed")
		return report
	}

	s.decoded.Add(1)
	b := img.Bounds()
	report.OK = true
	report.Width = b.Dx()
	report.Height = b.Dy()
	report.Channels = 4
	log.Debug("decoded")
	return report
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	return Stats{
		Frames:   s.frames.Load(),
		Bytes:    s.bytes.Load(),
		Decoded:  s.decoded.Load(),
		Failed:   s.failed.Load(),
		Rejected: s.rejected.Load(),
	}
}
