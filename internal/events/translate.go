package events

import (
	"errors"
	"fmt"
	"slices"

	"prfeed/pkg/realtime"
)

var (
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrInvalidChange    = errors.New("invalid change kind")
	ErrMissingTopic     = errors.New("event has no repository or pull request")
	ErrMissingEntity    = errors.New("event has no comment or reply id")
)

var (
	pullRequestChanges = []ChangeKind{
		ChangeCreated, ChangeModified, ChangeDeleted, ChangeMerged, ChangeRejected,
		ChangeReopened, ChangeSourceUpdated, ChangeApproved, ChangeApprovalRemoved,
	}
	commentChanges = []ChangeKind{ChangeCreated, ChangeModified, ChangeDeleted}
)

// Payload is the JSON body of a message. It is one of PullRequestPayload,
// CommentPayload or ReplyPayload.
type Payload interface {
	MessageType() realtime.MessageType
	payload()
}

// PullRequestPayload describes a change to a pull request.
type PullRequestPayload struct {
	Change      ChangeKind `json:"change"`
	PullRequest string     `json:"pullRequest"`
}

func (PullRequestPayload) MessageType() realtime.MessageType { return TypePullRequest }
func (PullRequestPayload) payload()                          {}

// CommentPayload describes a change to a comment.
type CommentPayload struct {
	Change      ChangeKind `json:"change"`
	PullRequest string     `json:"pullRequest"`
	Comment     string     `json:"comment"`
}

func (CommentPayload) MessageType() realtime.MessageType { return TypeComment }
func (CommentPayload) payload()                          {}

// ReplyPayload describes a change to a reply.
type ReplyPayload struct {
	Change      ChangeKind `json:"change"`
	PullRequest string     `json:"pullRequest"`
	Comment     string     `json:"comment"`
	Reply       string     `json:"reply"`
}

func (ReplyPayload) MessageType() realtime.MessageType { return TypeReply }
func (ReplyPayload) payload()                          {}

// NewMessage wraps p in a message tagged with its type.
func NewMessage(p Payload) realtime.Message {
	return realtime.Message{Type: p.MessageType(), Payload: p}
}

// Notification is a translated event, ready to broadcast.
type Notification struct {
	Topic   realtime.Topic
	Message realtime.Message
	Sender  realtime.SessionID
}

// Translate maps ev to the topic it concerns, the message for that topic's
// subscribers and the session that caused it.
func Translate(ev Event) (Notification, error) {
	if ev == nil {
		return Notification{}, ErrUnsupportedEvent
	}
	topic := ev.Topic()
	if topic.Repository == "" || topic.PullRequest == "" {
		return Notification{}, ErrMissingTopic
	}

	var p Payload
	switch e := ev.(type) {
	case PullRequestEvent:
		if !slices.Contains(pullRequestChanges, e.Change) {
			return Notification{}, fmt.Errorf("pull request %q: %w", e.Change, ErrInvalidChange)
		}
		p = PullRequestPayload{Change: e.Change, PullRequest: e.PullRequest}
	case CommentEvent:
		if !slices.Contains(commentChanges, e.Change) {
			return Notification{}, fmt.Errorf("comment %q: %w", e.Change, ErrInvalidChange)
		}
		if e.Comment == "" {
			return Notification{}, ErrMissingEntity
		}
		p = CommentPayload{Change: e.Change, PullRequest: e.PullRequest, Comment: e.Comment}
	case ReplyEvent:
		if !slices.Contains(commentChanges, e.Change) {
			return Notification{}, fmt.Errorf("reply %q: %w", e.Change, ErrInvalidChange)
		}
		if e.Comment == "" || e.Reply == "" {
			return Notification{}, ErrMissingEntity
		}
		p = ReplyPayload{Change: e.Change, PullRequest: e.PullRequest, Comment: e.Comment, Reply: e.Reply}
	default:
		return Notification{}, fmt.Errorf("%T: %w", ev, ErrUnsupportedEvent)
	}

	return Notification{
		Topic:   topic,
		Message: NewMessage(p),
		Sender:  ev.Originator(),
	}, nil
}
