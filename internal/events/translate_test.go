package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prfeed/pkg/realtime"
)

func TestTranslate(t *testing.T) {
	topic := realtime.Topic{Repository: "repo1", PullRequest: "pr42"}

	tests := []struct {
		name  string
		event Event
		want  Notification
	}{
		{
			name:  "pull request merged",
			event: PullRequestEvent{Repository: "repo1", PullRequest: "pr42", Change: ChangeMerged, SessionID: "s1"},
			want: Notification{
				Topic:   topic,
				Message: realtime.Message{Type: TypePullRequest, Payload: PullRequestPayload{Change: ChangeMerged, PullRequest: "pr42"}},
				Sender:  "s1",
			},
		},
		{
			name:  "comment created without session",
			event: CommentEvent{Repository: "repo1", PullRequest: "pr42", Comment: "c1", Change: ChangeCreated},
			want: Notification{
				Topic:   topic,
				Message: realtime.Message{Type: TypeComment, Payload: CommentPayload{Change: ChangeCreated, PullRequest: "pr42", Comment: "c1"}},
			},
		},
		{
			name:  "reply deleted",
			event: ReplyEvent{Repository: "repo1", PullRequest: "pr42", Comment: "c1", Reply: "r7", Change: ChangeDeleted, SessionID: "s2"},
			want: Notification{
				Topic:   topic,
				Message: realtime.Message{Type: TypeReply, Payload: ReplyPayload{Change: ChangeDeleted, PullRequest: "pr42", Comment: "c1", Reply: "r7"}},
				Sender:  "s2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  error
	}{
		{name: "nil event", event: nil, want: ErrUnsupportedEvent},
		{name: "missing repository", event: PullRequestEvent{PullRequest: "1", Change: ChangeCreated}, want: ErrMissingTopic},
		{name: "missing pull request", event: CommentEvent{Repository: "r", Comment: "c", Change: ChangeCreated}, want: ErrMissingTopic},
		{name: "comment cannot be merged", event: CommentEvent{Repository: "r", PullRequest: "1", Comment: "c", Change: ChangeMerged}, want: ErrInvalidChange},
		{name: "unknown pull request change", event: PullRequestEvent{Repository: "r", PullRequest: "1", Change: "EXPLODED"}, want: ErrInvalidChange},
		{name: "comment without id", event: CommentEvent{Repository: "r", PullRequest: "1", Change: ChangeCreated}, want: ErrMissingEntity},
		{name: "reply without reply id", event: ReplyEvent{Repository: "r", PullRequest: "1", Comment: "c", Change: ChangeCreated}, want: ErrMissingEntity},
		{name: "foreign event type", event: foreignEvent{}, want: ErrUnsupportedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.event)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type foreignEvent struct{ PullRequestEvent }

func (foreignEvent) Topic() realtime.Topic {
	return realtime.Topic{Repository: "r", PullRequest: "1"}
}
