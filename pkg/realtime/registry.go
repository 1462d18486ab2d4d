package realtime

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

// DefaultIdleTimeout bounds how long a client may go without a successful
// delivery before a sweep reclaims it.
const DefaultIdleTimeout = 10 * time.Minute

// Registry maps topics to channels. Channels are created on first use and
// live as long as the registry; only their clients are pruned.
type Registry struct {
	channels    *xsync.MapOf[Topic, *Channel]
	clock       clockwork.Clock
	factory     ClientFactory
	idleTimeout time.Duration
	log         zerolog.Logger

	newChannel func(Topic) *Channel
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for sweeps and client activity.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithClientFactory replaces the default client factory.
func WithClientFactory(factory ClientFactory) Option {
	return func(r *Registry) { r.factory = factory }
}

// WithIdleTimeout sets the timeout used by the sweep that runs before Resolve.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

// WithLogger sets the registry's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		channels:    xsync.NewMapOf[Topic, *Channel](),
		clock:       clockwork.NewRealClock(),
		idleTimeout: DefaultIdleTimeout,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = NewClientFactory(r.clock, r.log)
	}
	r.newChannel = func(topic Topic) *Channel {
		return NewChannel(topic, r.factory, r.log)
	}
	return r
}

// Resolve returns the channel for topic, creating it if needed. Concurrent
// first calls for the same topic all receive the same channel. Dead clients
// of every channel are swept first, best-effort.
func (r *Registry) Resolve(topic Topic) *Channel {
	r.SweepAll(r.clock.Now(), r.idleTimeout)

	ch, loaded := r.channels.LoadOrCompute(topic, func() *Channel {
		return r.newChannel(topic)
	})
	if !loaded {
		r.log.Debug().Str("topic", topic.String()).Msg("channel created")
	}
	return ch
}

// Lookup returns the channel for topic without creating it.
func (r *Registry) Lookup(topic Topic) (*Channel, bool) {
	return r.channels.Load(topic)
}

// Broadcast delivers msg to the subscribers of topic, skipping sender's own
// clients. Topics nobody subscribed to are ignored.
func (r *Registry) Broadcast(topic Topic, sender SessionID, msg Message) int {
	ch, ok := r.Lookup(topic)
	if !ok {
		return 0
	}
	return ch.Broadcast(sender, msg)
}

// SweepAll prunes closed and idle clients from every channel and returns the
// total removed.
func (r *Registry) SweepAll(now time.Time, idleTimeout time.Duration) int {
	removed := 0
	r.channels.Range(func(_ Topic, ch *Channel) bool {
		removed += ch.PruneStaleOrClosed(now, idleTimeout)
		return true
	})
	return removed
}

// Len returns the number of known channels, including empty ones.
func (r *Registry) Len() int {
	return r.channels.Size()
}

// ChannelStats describes one channel.
type ChannelStats struct {
	Topic   Topic
	Clients int
}

// Stats returns per-channel client counts ordered by topic.
func (r *Registry) Stats() []ChannelStats {
	stats := make([]ChannelStats, 0, r.channels.Size())
	r.channels.Range(func(topic Topic, ch *Channel) bool {
		stats = append(stats, ChannelStats{Topic: topic, Clients: ch.Len()})
		return true
	})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Topic.Repository != stats[j].Topic.Repository {
			return stats[i].Topic.Repository < stats[j].Topic.Repository
		}
		return stats[i].Topic.PullRequest < stats[j].Topic.PullRequest
	})
	return stats
}
