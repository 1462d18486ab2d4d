package realtime

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(sink Sink, session SessionID) (*Client, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(epoch)
	c := NewClientFactory(clock, zerolog.Nop()).Create(Registration{Sink: sink, SessionID: session})
	return c, clock
}

func TestClientFactory_Create(t *testing.T) {
	c, _ := newTestClient(&fakeSink{}, "s1")

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, SessionID("s1"), c.SessionID())
	assert.True(t, c.LastActivity().Equal(epoch))
	assert.False(t, c.Removed())
	assert.False(t, c.IsClosed())
}

func TestClient_SendUpdatesActivity(t *testing.T) {
	sink := &fakeSink{}
	c, clock := newTestClient(sink, "")

	clock.Advance(time.Minute)
	c.Send(Message{Type: "PULL_REQUEST"})

	assert.Equal(t, 1, sink.count())
	assert.True(t, c.LastActivity().Equal(epoch.Add(time.Minute)))
}

func TestClient_SendToClosedSinkIsNoop(t *testing.T) {
	sink := &fakeSink{}
	c, clock := newTestClient(sink, "")
	sink.closed.Store(true)

	clock.Advance(time.Minute)
	c.Send(Message{Type: "COMMENT"})

	assert.Equal(t, 0, sink.sendAttempts())
	assert.True(t, c.LastActivity().Equal(epoch))
}

func TestClient_FailedSendClosesClient(t *testing.T) {
	sink := &fakeSink{fail: errors.New("broken pipe")}
	c, _ := newTestClient(sink, "")

	c.Send(Message{Type: "COMMENT"})

	assert.True(t, c.IsClosed())
	assert.True(t, c.Removed())
	assert.True(t, c.LastActivity().Equal(epoch))
}

func TestClient_AsyncFailureClosesClient(t *testing.T) {
	sink := &fakeSink{hold: true}
	c, _ := newTestClient(sink, "")

	c.Send(Message{Type: "REPLY"})
	assert.False(t, c.IsClosed())

	sink.pending[0].Resolve(errors.New("write timeout"))
	assert.True(t, c.IsClosed())
}

func TestClient_IsStale(t *testing.T) {
	c, _ := newTestClient(&fakeSink{}, "")

	tests := []struct {
		name    string
		now     time.Time
		timeout time.Duration
		want    bool
	}{
		{name: "fresh", now: epoch.Add(time.Minute), timeout: 5 * time.Minute, want: false},
		{name: "exactly at timeout", now: epoch.Add(5 * time.Minute), timeout: 5 * time.Minute, want: false},
		{name: "idle past timeout", now: epoch.Add(10 * time.Minute), timeout: 5 * time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsStale(tt.now, tt.timeout))
		})
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	sink := &fakeSink{}
	c, _ := newTestClient(sink, "")

	c.Close()
	c.Close()

	assert.True(t, c.Removed())
	assert.Equal(t, int32(1), sink.closes.Load())
}
