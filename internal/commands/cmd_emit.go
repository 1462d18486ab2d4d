package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"prfeed/internal/events"
	"prfeed/internal/handlers"
	"prfeed/pkg/realtime"
)

type EmitCmd struct {
	flags  *Flags
	client *http.Client
}

// NewEmitCmd creates a new emit command
func NewEmitCmd(flags *Flags) *EmitCmd {
	return &EmitCmd{flags: flags, client: &http.Client{Timeout: 10 * time.Second}}
}

// Register adds the emit command to the application
func (cmd *EmitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "emit",
		Usage:     "Publish a domain event to a running server",
		UsageText: "prfeed emit --type COMMENT --change CREATED --repository r --pull-request 1 --comment c",
		Description: `Sends one event to POST /api/events and prints how many clients it reached.

Pass --session to exclude the subscriber that caused the change.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "base URL of the prfeed server",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("PRFEED_SERVER"),
			},
			&cli.StringFlag{
				Name:     "type",
				Usage:    "event type (PULL_REQUEST, COMMENT, REPLY)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "change",
				Usage:    "change kind, e.g. CREATED or MERGED",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "repository",
				Aliases:  []string{"r"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "pull-request",
				Aliases:  []string{"p"},
				Required: true,
			},
			&cli.StringFlag{Name: "comment"},
			&cli.StringFlag{Name: "reply"},
			&cli.StringFlag{
				Name:  "session",
				Usage: "session id of the originating user",
			},
		},
	})

	return app
}

func (cmd *EmitCmd) run(ctx context.Context, c *cli.Command) error {
	env := events.Envelope{
		Type:        realtime.MessageType(strings.ToUpper(c.String("type"))),
		Change:      events.ChangeKind(strings.ToUpper(c.String("change"))),
		Repository:  c.String("repository"),
		PullRequest: c.String("pull-request"),
		Comment:     c.String("comment"),
		Reply:       c.String("reply"),
		SessionID:   realtime.SessionID(c.String("session")),
	}

	sent, err := emit(ctx, cmd.client, c.String("server"), env)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "%s %s delivered to %d client(s)\n", env.Type, env.Change, sent)
	return err
}

// emit validates env locally, posts it and returns the number of clients
// the server reached.
func emit(ctx context.Context, client *http.Client, server string, env events.Envelope) (int, error) {
	ev, err := env.Event()
	if err != nil {
		return 0, err
	}
	if _, err := events.Translate(ev); err != nil {
		return 0, err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}

	url := strings.TrimRight(server, "/") + "/api/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", events.MediaTypeJSON)
	if env.SessionID != "" {
		req.Header.Set(handlers.SessionHeader, string(env.SessionID))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Clients int    `json:"clients"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return 0, fmt.Errorf("server rejected event (%s): %s", resp.Status, out.Error)
	}
	return out.Clients, nil
}
