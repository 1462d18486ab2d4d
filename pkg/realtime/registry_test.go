package realtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(epoch)
	return NewRegistry(WithClock(clock), WithIdleTimeout(5*time.Minute)), clock
}

func TestRegistry_ResolveConcurrentCreatesOneChannel(t *testing.T) {
	r, _ := newTestRegistry()

	var constructed atomic.Int32
	build := r.newChannel
	r.newChannel = func(topic Topic) *Channel {
		constructed.Add(1)
		return build(topic)
	}

	topic := Topic{Repository: "repoX", PullRequest: "pr1"}
	const callers = 50

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		got   = make([]*Channel, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = r.Resolve(topic)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), constructed.Load())
	assert.Equal(t, 1, r.Len())
	for _, ch := range got {
		assert.Same(t, got[0], ch)
	}
}

func TestRegistry_ResolveStructuralTopicEquality(t *testing.T) {
	r, _ := newTestRegistry()

	a := r.Resolve(Topic{Repository: "repo1", PullRequest: "pr42"})
	b := r.Resolve(Topic{Repository: "repo1", PullRequest: "pr42"})
	c := r.Resolve(Topic{Repository: "repo1", PullRequest: "pr43"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_BroadcastUnknownTopic(t *testing.T) {
	r, _ := newTestRegistry()

	sent := r.Broadcast(Topic{Repository: "r", PullRequest: "1"}, "", Message{Type: "COMMENT"})

	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, r.Len())
	_, ok := r.Lookup(Topic{Repository: "r", PullRequest: "1"})
	assert.False(t, ok)
}

func TestRegistry_BroadcastRoutesByTopic(t *testing.T) {
	r, _ := newTestRegistry()
	first := &fakeSink{}
	second := &fakeSink{}
	_, err := r.Resolve(Topic{Repository: "r", PullRequest: "1"}).Register(Registration{Sink: first})
	require.NoError(t, err)
	_, err = r.Resolve(Topic{Repository: "r", PullRequest: "2"}).Register(Registration{Sink: second})
	require.NoError(t, err)

	sent := r.Broadcast(Topic{Repository: "r", PullRequest: "1"}, "", Message{Type: "PULL_REQUEST"})

	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 0, second.count())
}

func TestRegistry_SweepAllKeepsEmptyChannels(t *testing.T) {
	r, clock := newTestRegistry()
	sink := &fakeSink{}
	_, err := r.Resolve(Topic{Repository: "r", PullRequest: "1"}).Register(Registration{Sink: sink})
	require.NoError(t, err)
	_, err = r.Resolve(Topic{Repository: "r", PullRequest: "2"}).Register(Registration{Sink: &fakeSink{}})
	require.NoError(t, err)

	sink.closed.Store(true)
	removed := r.SweepAll(clock.Now(), time.Hour)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []ChannelStats{
		{Topic: Topic{Repository: "r", PullRequest: "1"}, Clients: 0},
		{Topic: Topic{Repository: "r", PullRequest: "2"}, Clients: 1},
	}, r.Stats())
}

func TestRegistry_ResolveSweepsFirst(t *testing.T) {
	r, clock := newTestRegistry()
	topic := Topic{Repository: "r", PullRequest: "1"}
	_, sink := register(t, r.Resolve(topic), "")

	clock.Advance(6 * time.Minute)
	ch := r.Resolve(Topic{Repository: "other", PullRequest: "9"})

	assert.Equal(t, 0, ch.Len())
	existing, ok := r.Lookup(topic)
	require.True(t, ok)
	assert.Equal(t, 0, existing.Len())
	assert.True(t, sink.Closed())
}

func TestRegistry_StatsOrdered(t *testing.T) {
	r, _ := newTestRegistry()
	r.Resolve(Topic{Repository: "b", PullRequest: "1"})
	r.Resolve(Topic{Repository: "a", PullRequest: "2"})
	r.Resolve(Topic{Repository: "a", PullRequest: "1"})

	stats := r.Stats()

	require.Len(t, stats, 3)
	assert.Equal(t, "a/1", stats[0].Topic.String())
	assert.Equal(t, "a/2", stats[1].Topic.String())
	assert.Equal(t, "b/1", stats[2].Topic.String())
}
