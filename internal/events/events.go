// Package events translates pull request domain events into realtime
// messages and realtime messages into wire events.
package events

import "prfeed/pkg/realtime"

// Message types understood by clients. The set is closed.
const (
	TypePullRequest realtime.MessageType = "PULL_REQUEST"
	TypeComment     realtime.MessageType = "COMMENT"
	TypeReply       realtime.MessageType = "REPLY"
)

// ChangeKind says what happened to the entity an event is about.
type ChangeKind string

const (
	ChangeCreated         ChangeKind = "CREATED"
	ChangeModified        ChangeKind = "MODIFIED"
	ChangeDeleted         ChangeKind = "DELETED"
	ChangeMerged          ChangeKind = "MERGED"
	ChangeRejected        ChangeKind = "REJECTED"
	ChangeReopened        ChangeKind = "REOPENED"
	ChangeSourceUpdated   ChangeKind = "SOURCE_UPDATED"
	ChangeApproved        ChangeKind = "APPROVED"
	ChangeApprovalRemoved ChangeKind = "APPROVAL_REMOVED"
)

// Event is a domain event about a pull request. Implementations are the
// types in this package.
type Event interface {
	Topic() realtime.Topic
	Originator() realtime.SessionID
	event()
}

// PullRequestEvent reports a change to the pull request itself.
type PullRequestEvent struct {
	Repository  string
	PullRequest string
	Change      ChangeKind
	SessionID   realtime.SessionID
}

func (e PullRequestEvent) Topic() realtime.Topic {
	return realtime.Topic{Repository: e.Repository, PullRequest: e.PullRequest}
}

func (e PullRequestEvent) Originator() realtime.SessionID { return e.SessionID }

func (PullRequestEvent) event() {}

// CommentEvent reports a change to a root comment of a pull request.
type CommentEvent struct {
	Repository  string
	PullRequest string
	Comment     string
	Change      ChangeKind
	SessionID   realtime.SessionID
}

func (e CommentEvent) Topic() realtime.Topic {
	return realtime.Topic{Repository: e.Repository, PullRequest: e.PullRequest}
}

func (e CommentEvent) Originator() realtime.SessionID { return e.SessionID }

func (CommentEvent) event() {}

// ReplyEvent reports a change to a reply in a comment thread.
type ReplyEvent struct {
	Repository  string
	PullRequest string
	Comment     string
	Reply       string
	Change      ChangeKind
	SessionID   realtime.SessionID
}

func (e ReplyEvent) Topic() realtime.Topic {
	return realtime.Topic{Repository: e.Repository, PullRequest: e.PullRequest}
}

func (e ReplyEvent) Originator() realtime.SessionID { return e.SessionID }

func (ReplyEvent) event() {}
