package realtime

import "fmt"

// Topic identifies one broadcast group: a pull request within a repository.
type Topic struct {
	Repository  string
	PullRequest string
}

func (t Topic) String() string {
	return fmt.Sprintf("%s/%s", t.Repository, t.PullRequest)
}

// MessageType tags a Message. The transport uses it as the event name.
type MessageType string

// Message is the envelope handed to every Client of a Channel. The payload
// is opaque to this package and is serialized by the transport.
type Message struct {
	Type    MessageType
	Payload any
}

// SessionID identifies the actor owning a connection. It is not unique:
// several connections (tabs) may share one. The zero value means no session.
type SessionID string

// Sink is a live delivery endpoint, such as a streaming HTTP response.
// Send must not block on the transport; it reports the outcome through the
// returned Delivery.
type Sink interface {
	Send(msg Message) *Delivery
	Close() error
	Closed() bool
}

// Registration asks a Channel to add a Client for Sink.
type Registration struct {
	Sink      Sink
	SessionID SessionID
}
