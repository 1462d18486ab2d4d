package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"prfeed/pkg/realtime"
)

// MediaTypeJSON is the media type of every wire payload.
const MediaTypeJSON = "application/json"

// WireEvent is a message as the transport sends it.
type WireEvent struct {
	Name      string
	MediaType string
	Data      []byte
}

// Encode maps msg to its wire form: the type tag becomes the event name and
// the payload is serialized as JSON.
func Encode(msg realtime.Message) (WireEvent, error) {
	if msg.Type == "" {
		return WireEvent{}, errors.New("message has no type")
	}
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return WireEvent{}, fmt.Errorf("encode %s payload: %w", msg.Type, err)
	}
	return WireEvent{
		Name:      string(msg.Type),
		MediaType: MediaTypeJSON,
		Data:      data,
	}, nil
}

// Envelope is the JSON form of a domain event accepted from producers.
type Envelope struct {
	Type        realtime.MessageType `json:"type"`
	Change      ChangeKind           `json:"change"`
	Repository  string               `json:"repository"`
	PullRequest string               `json:"pullRequest"`
	Comment     string               `json:"comment,omitempty"`
	Reply       string               `json:"reply,omitempty"`
	SessionID   realtime.SessionID   `json:"session,omitempty"`
}

// DecodeEnvelope reads one JSON envelope from r. Unknown fields are
// rejected so misspelled producer fields do not pass silently.
func DecodeEnvelope(r io.Reader) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decode event: %w", err)
	}
	return env, nil
}

// Event converts the envelope into the domain event its type names.
func (env Envelope) Event() (Event, error) {
	switch env.Type {
	case TypePullRequest:
		return PullRequestEvent{
			Repository:  env.Repository,
			PullRequest: env.PullRequest,
			Change:      env.Change,
			SessionID:   env.SessionID,
		}, nil
	case TypeComment:
		return CommentEvent{
			Repository:  env.Repository,
			PullRequest: env.PullRequest,
			Comment:     env.Comment,
			Change:      env.Change,
			SessionID:   env.SessionID,
		}, nil
	case TypeReply:
		return ReplyEvent{
			Repository:  env.Repository,
			PullRequest: env.PullRequest,
			Comment:     env.Comment,
			Reply:       env.Reply,
			Change:      env.Change,
			SessionID:   env.SessionID,
		}, nil
	default:
		return nil, fmt.Errorf("event type %q: %w", env.Type, ErrUnsupportedEvent)
	}
}
