package realtime

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

const (
	stateAlive   = "alive"
	stateRemoved = "removed"

	eventRemove = "remove"
)

// Client is one registered Sink plus its liveness metadata. A Client is only
// reachable through the Channel holding it; overlapping broadcasts may call
// Send concurrently, so the activity timestamp is atomic.
type Client struct {
	id        string
	sink      Sink
	sessionID SessionID
	clock     clockwork.Clock
	log       zerolog.Logger

	lastActivity atomic.Int64
	state        *fsm.FSM
}

// ID returns the client's unique id.
func (c *Client) ID() string { return c.id }

// SessionID returns the session the client was registered with, if any.
func (c *Client) SessionID() SessionID { return c.sessionID }

// LastActivity returns the time of the last successful send, or the
// registration time if nothing was delivered yet.
func (c *Client) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// Send hands msg to the sink without waiting for the transport. A closed
// sink makes this a no-op. A failed delivery closes the client.
func (c *Client) Send(msg Message) {
	if c.sink.Closed() {
		c.log.Debug().Str("type", string(msg.Type)).Msg("skipping send to closed sink")
		return
	}

	c.sink.Send(msg).
		OnSuccess(c.touch).
		OnFailure(func(err error) {
			c.log.Debug().Err(err).Str("type", string(msg.Type)).Msg("delivery failed, closing client")
			c.Close()
		})
}

func (c *Client) touch() {
	c.lastActivity.Store(c.clock.Now().UnixNano())
}

// IsClosed reports the sink's own closed state.
func (c *Client) IsClosed() bool {
	return c.sink.Closed()
}

// IsStale reports whether nothing was delivered for longer than timeout.
func (c *Client) IsStale(now time.Time, timeout time.Duration) bool {
	return now.Sub(c.LastActivity()) > timeout
}

// Close removes the client and closes its sink. Only the first call does
// anything.
func (c *Client) Close() {
	if err := c.state.Event(context.Background(), eventRemove); err != nil {
		return
	}
	if err := c.sink.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing sink")
	}
}

// Removed reports whether Close was called.
func (c *Client) Removed() bool {
	return c.state.Is(stateRemoved)
}

// ClientFactory builds Clients for a Channel.
type ClientFactory interface {
	Create(reg Registration) *Client
}

// DefaultClientFactory stamps clients with a uuid and the clock's current
// time as their initial activity.
type DefaultClientFactory struct {
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewClientFactory returns a factory reading time from clock.
func NewClientFactory(clock clockwork.Clock, log zerolog.Logger) *DefaultClientFactory {
	return &DefaultClientFactory{clock: clock, log: log}
}

// Create wraps reg.Sink in a new alive Client.
func (f *DefaultClientFactory) Create(reg Registration) *Client {
	id := uuid.NewString()
	c := &Client{
		id:        id,
		sink:      reg.Sink,
		sessionID: reg.SessionID,
		clock:     f.clock,
		log: f.log.With().
			Str("client", id).
			Str("session", string(reg.SessionID)).
			Logger(),
		state: fsm.NewFSM(
			stateAlive,
			fsm.Events{
				{Name: eventRemove, Src: []string{stateAlive}, Dst: stateRemoved},
			},
			fsm.Callbacks{},
		),
	}
	c.touch()
	return c
}
