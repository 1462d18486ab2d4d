package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNilSink    = errors.New("registration has no sink")
	ErrSinkClosed = errors.New("registration sink is already closed")
)

// Channel is the subscriber set of one Topic. Broadcasts share the read
// lock; Register and PruneStaleOrClosed take the write lock.
type Channel struct {
	topic   Topic
	factory ClientFactory
	log     zerolog.Logger

	mu      sync.RWMutex
	clients []*Client
}

// NewChannel creates an empty channel for topic.
func NewChannel(topic Topic, factory ClientFactory, log zerolog.Logger) *Channel {
	return &Channel{
		topic:   topic,
		factory: factory,
		log:     log.With().Str("topic", topic.String()).Logger(),
	}
}

// Topic returns the channel's topic.
func (ch *Channel) Topic() Topic { return ch.topic }

// Register adds a Client for reg. A sink that is missing or already closed
// is rejected; the caller must not hand over unusable sinks.
func (ch *Channel) Register(reg Registration) (*Client, error) {
	if reg.Sink == nil {
		return nil, ErrNilSink
	}
	if reg.Sink.Closed() {
		return nil, ErrSinkClosed
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	c := ch.factory.Create(reg)
	ch.clients = append(ch.clients, c)
	ch.log.Debug().Str("client", c.ID()).Int("clients", len(ch.clients)).Msg("client registered")
	return c, nil
}

// Broadcast sends msg to every client except those belonging to sender.
// An empty sender excludes nobody. It returns how many clients were sent to.
func (ch *Channel) Broadcast(sender SessionID, msg Message) int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	sent := 0
	for _, c := range ch.clients {
		if sender != "" && c.SessionID() == sender {
			continue
		}
		c.Send(msg)
		sent++
	}
	return sent
}

// PruneStaleOrClosed drops every client whose sink is closed or which has
// been idle longer than idleTimeout, and returns how many were dropped.
func (ch *Channel) PruneStaleOrClosed(now time.Time, idleTimeout time.Duration) int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	kept := ch.clients[:0]
	var removed []*Client
	for _, c := range ch.clients {
		if c.IsClosed() || c.IsStale(now, idleTimeout) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(ch.clients); i++ {
		ch.clients[i] = nil
	}
	ch.clients = kept

	for _, c := range removed {
		c.Close()
	}
	if len(removed) > 0 {
		ch.log.Debug().Int("removed", len(removed)).Int("clients", len(kept)).Msg("pruned clients")
	}
	return len(removed)
}

// Len returns the number of registered clients.
func (ch *Channel) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.clients)
}

// Clients returns a snapshot of the registered clients.
func (ch *Channel) Clients() []*Client {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	out := make([]*Client, len(ch.clients))
	copy(out, ch.clients)
	return out
}
