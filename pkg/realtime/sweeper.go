package realtime

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often a Sweeper prunes the registry.
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically prunes closed and idle clients from a Registry.
type Sweeper struct {
	registry    *Registry
	clock       clockwork.Clock
	interval    time.Duration
	idleTimeout time.Duration
	log         zerolog.Logger
	wake        chan struct{}
}

// NewSweeper creates a sweeper for registry. Zero durations fall back to
// DefaultSweepInterval and DefaultIdleTimeout.
func NewSweeper(registry *Registry, clock clockwork.Clock, interval, idleTimeout time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Sweeper{
		registry:    registry,
		clock:       clock,
		interval:    interval,
		idleTimeout: idleTimeout,
		log:         log,
		wake:        make(chan struct{}, 1),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.interval).Dur("idle_timeout", s.idleTimeout).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("sweeper stopped")
			return
		case <-ticker.Chan():
		case <-s.wake:
		}
		s.Sweep()
	}
}

// Sweep runs one pass immediately and returns how many clients it removed.
func (s *Sweeper) Sweep() int {
	removed := s.registry.SweepAll(s.clock.Now(), s.idleTimeout)
	if removed > 0 {
		s.log.Info().Int("removed", removed).Int("channels", s.registry.Len()).Msg("swept clients")
	}
	return removed
}

// Wake asks a running sweeper to sweep now instead of waiting for the next
// tick. Wakes coalesce.
func (s *Sweeper) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
