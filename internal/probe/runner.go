package probe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/config"
	"github.com/junsooki/stbshim/internal/peer"
	"github.com/junsooki/stbshim/internal/signaling"
	"github.com/junsooki/stbshim/internal/transport"
)

// Payload is one encoded buffer to submit.
type Payload struct {
	Name string
	Data []byte
}

// Result pairs a payload name with its report.
type Result struct {
	Name   string           `json:"name"`
	Report signaling.Report `json:"report"`
}

// LoadPayloads reads each path into memory.
func LoadPayloads(paths []string) ([]Payload, error) {
	payloads := make([]Payload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.WrapPrefix(err, "read "+p, 0)
		}
		payloads = append(payloads, Payload{Name: filepath.Base(p), Data: data})
	}
	return payloads, nil
}

// DecodeLocal runs payloads through svc without a server.
func DecodeLocal(svc *Service, payloads []Payload) []Result {
	results := make([]Result, len(payloads))
	for i, p := range payloads {
		results[i] = Result{Name: p.Name, Report: svc.Handle(uint64(i+1), p.Data)}
	}
	return results
}

// Send submits payloads to the server named in cfg and waits for one report
// per payload. Payload i is sent with seq i+1. Results come back in payload
// order.
func Send(ctx context.Context, cfg *config.ProbeConfig, payloads []Payload, log *logrus.Entry) ([]Result, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	registered := make(chan struct{}, 1)
	reports := make(chan signaling.Report, len(payloads))
	serverErrs := make(chan string, 1)

	var offerer *peer.Offerer
	client := signaling.NewClient(cfg.Server, cfg.ID, signaling.Handler{
		OnRegistered: func() {
			registered <- struct{}{}
		},
		OnAnswer: func(payload json.RawMessage) {
			if offerer == nil {
				return
			}
			if err := offerer.HandleAnswer(payload); err != nil {
				log.WithError(err).Error("handle answer")
			}
		},
		OnICECandidate: func(payload json.RawMessage) {
			if offerer == nil {
				return
			}
			if err := offerer.HandleICECandidate(payload); err != nil {
				log.WithError(err).Warn("handle ICE candidate")
			}
		},
		OnReport: func(r signaling.Report) {
			deliver(reports, r)
		},
		OnError: func(msg string) {
			select {
			case serverErrs <- msg:
			default:
			}
		},
	}, log)

	if cfg.WebRTC {
		var err error
		offerer, err = peer.NewOfferer(client, cfg.ICEServers, log)
		if err != nil {
			return nil, errors.WrapPrefix(err, "create offerer", 0)
		}
		defer offerer.Close()
		var rx transport.ReportReceiver = offerer.Transport()
		rx.OnReport(func(r signaling.Report) {
			deliver(reports, r)
		})
	}

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	defer client.Close()

	if err := wait(ctx, registered, serverErrs, client.Done()); err != nil {
		return nil, errors.WrapPrefix(err, "register", 0)
	}

	var sender transport.FrameSender = client
	if offerer != nil {
		if err := offerer.Connect(); err != nil {
			return nil, errors.WrapPrefix(err, "send offer", 0)
		}
		if err := wait(ctx, offerer.Ready(), serverErrs, client.Done()); err != nil {
			return nil, errors.WrapPrefix(err, "open data channels", 0)
		}
		sender = offerer.Transport()
	}

	for i, p := range payloads {
		if err := sender.SendFrame(uint64(i+1), p.Data); err != nil {
			return nil, errors.WrapPrefix(err, "send "+p.Name, 0)
		}
	}

	return collect(ctx, payloads, reports, serverErrs, client.Done(), log)
}

// collect waits until every payload has a report. Reports for unknown or
// already answered seqs are logged and ignored.
func collect(ctx context.Context, payloads []Payload, reports <-chan signaling.Report, serverErrs <-chan string, done <-chan struct{}, log *logrus.Entry) ([]Result, error) {
	results := make([]Result, len(payloads))
	filled := make([]bool, len(payloads))
	for received := 0; received < len(payloads); {
		select {
		case r := <-reports:
			if r.Seq == 0 || r.Seq > uint64(len(payloads)) {
				log.WithField("seq", r.Seq).Warn("report for unknown seq")
				continue
			}
			i := r.Seq - 1
			if filled[i] {
				log.WithField("seq", r.Seq).Warn("duplicate report")
				continue
			}
			results[i] = Result{Name: payloads[i].Name, Report: r}
			filled[i] = true
			received++
		case msg := <-serverErrs:
			return nil, errors.Errorf("server error: %s", msg)
		case <-done:
			return nil, errors.New("connection closed before all reports arrived")
		case <-ctx.Done():
			return nil, errors.WrapPrefix(ctx.Err(), "waiting for reports", 0)
		}
	}
	return results, nil
}

func wait(ctx context.Context, ready <-chan struct{}, serverErrs <-chan string, done <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	case msg := <-serverErrs:
		return errors.Errorf("server error: %s", msg)
	case <-done:
		return errors.New("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver drops reports nobody is waiting for instead of blocking the
// connection's read loop.
func deliver(reports chan<- signaling.Report, r signaling.Report) {
	select {
	case reports <- r:
	default:
	}
}
