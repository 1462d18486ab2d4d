// Package sse implements realtime sinks on top of server-sent event streams.
package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"prfeed/internal/events"
	"prfeed/pkg/realtime"
)

var (
	ErrClosed               = errors.New("stream closed")
	ErrOutboxFull           = errors.New("stream outbox full")
	ErrStreamingUnsupported = errors.New("streaming unsupported")
)

const (
	DefaultOutboxSize = 16
	DefaultHeartbeat  = 25 * time.Second
)

type frame struct {
	event    events.WireEvent
	delivery *realtime.Delivery
}

// Sink queues messages for one event stream. Send never blocks: a full
// outbox fails the delivery right away. Serve owns the response writer and
// resolves each delivery once its frame is written.
type Sink struct {
	outbox    chan frame
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	heartbeat time.Duration
	clock     clockwork.Clock
}

// NewSink creates a sink buffering up to outboxSize frames and writing a
// keepalive comment every heartbeat. A non-positive heartbeat disables it.
func NewSink(outboxSize int, heartbeat time.Duration, clock clockwork.Clock) *Sink {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Sink{
		outbox:    make(chan frame, outboxSize),
		done:      make(chan struct{}),
		heartbeat: heartbeat,
		clock:     clock,
	}
}

// Send encodes msg and queues it for the stream.
func (s *Sink) Send(msg realtime.Message) *realtime.Delivery {
	if s.closed.Load() {
		return realtime.Failed(ErrClosed)
	}
	wire, err := events.Encode(msg)
	if err != nil {
		return realtime.Failed(err)
	}

	d := realtime.NewDelivery()
	select {
	case s.outbox <- frame{event: wire, delivery: d}:
		return d
	default:
		return realtime.Failed(ErrOutboxFull)
	}
}

// Close stops Serve. It is safe to call more than once.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}

// Closed reports whether the stream is gone.
func (s *Sink) Closed() bool {
	return s.closed.Load()
}

// Serve writes queued frames to w until ctx is done, the sink is closed or
// a write fails. The sink is closed when Serve returns and frames still
// queued fail with ErrClosed.
func (s *Sink) Serve(ctx context.Context, w http.ResponseWriter) error {
	defer s.drain()
	defer s.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	var keepalive <-chan time.Time
	if s.heartbeat > 0 {
		ticker := s.clock.NewTicker(s.heartbeat)
		defer ticker.Stop()
		keepalive = ticker.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case f := <-s.outbox:
			if err := writeEvent(w, f.event); err != nil {
				f.delivery.Resolve(err)
				return err
			}
			flusher.Flush()
			f.delivery.Resolve(nil)
		case <-keepalive:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return fmt.Errorf("write keepalive: %w", err)
			}
			flusher.Flush()
		}
	}
}

func (s *Sink) drain() {
	for {
		select {
		case f := <-s.outbox:
			f.delivery.Resolve(ErrClosed)
		default:
			return
		}
	}
}

// WriteRetry tells the client how long to wait before reconnecting.
func WriteRetry(w http.ResponseWriter, after time.Duration) error {
	_, err := fmt.Fprintf(w, "retry: %d\n\n", after.Milliseconds())
	return err
}

func writeEvent(w http.ResponseWriter, ev events.WireEvent) error {
	var b strings.Builder
	b.WriteString("event: " + ev.Name + "\n")
	for _, line := range strings.Split(string(ev.Data), "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	if _, err := w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write %s event: %w", ev.Name, err)
	}
	return nil
}
