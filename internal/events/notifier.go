package events

import (
	"fmt"

	"github.com/rs/zerolog"

	"prfeed/pkg/realtime"
)

// Broadcaster delivers a message to the subscribers of a topic.
type Broadcaster interface {
	Broadcast(topic realtime.Topic, sender realtime.SessionID, msg realtime.Message) int
}

// Notifier pushes domain events to live subscribers.
type Notifier struct {
	broadcaster Broadcaster
	log         zerolog.Logger
}

// NewNotifier creates a notifier broadcasting through b.
func NewNotifier(b Broadcaster, log zerolog.Logger) *Notifier {
	return &Notifier{broadcaster: b, log: log}
}

// Notify translates ev and broadcasts it. Only translation errors are
// returned; delivery is best-effort and its failures stay in the engine.
func (n *Notifier) Notify(ev Event) (int, error) {
	note, err := Translate(ev)
	if err != nil {
		return 0, fmt.Errorf("translate event: %w", err)
	}

	sent := n.broadcaster.Broadcast(note.Topic, note.Sender, note.Message)
	n.log.Debug().
		Str("topic", note.Topic.String()).
		Str("type", string(note.Message.Type)).
		Str("sender", string(note.Sender)).
		Int("clients", sent).
		Msg("event broadcast")
	return sent, nil
}
