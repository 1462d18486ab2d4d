package realtime

import (
	"sync"
	"sync/atomic"
)

// fakeSink records messages in memory. A non-nil fail makes every send
// fail synchronously; hold leaves deliveries unresolved for the test to
// resolve.
type fakeSink struct {
	mu       sync.Mutex
	received []Message
	pending  []*Delivery
	attempts int

	fail   error
	hold   bool
	closed atomic.Bool
	closes atomic.Int32
}

func (s *fakeSink) Send(msg Message) *Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.fail != nil {
		return Failed(s.fail)
	}
	if s.hold {
		d := NewDelivery()
		s.pending = append(s.pending, d)
		return d
	}
	s.received = append(s.received, msg)
	return Delivered()
}

func (s *fakeSink) Close() error {
	s.closes.Add(1)
	s.closed.Store(true)
	return nil
}

func (s *fakeSink) Closed() bool {
	return s.closed.Load()
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *fakeSink) sendAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
