// Package views holds the HTML components served by prfeed.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"prfeed/internal/viewmodel"
)

// StatusPage renders the channel overview.
func StatusPage(data viewmodel.StatusPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := templ.EscapeString(data.Title)
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body><h1>%s</h1>", title, title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<p>%d channels, %d idle, %d clients</p>", len(data.Channels), data.Idle, data.TotalClients); err != nil {
			return err
		}
		if err := ChannelTable(data.Channels).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// ChannelTable renders one row per channel.
func ChannelTable(rows []viewmodel.ChannelRow) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(rows) == 0 {
			_, err := io.WriteString(w, "<p>No channels yet.</p>")
			return err
		}
		if _, err := io.WriteString(w, "<table><thead><tr><th>Repository</th><th>Pull request</th><th>Clients</th></tr></thead><tbody>"); err != nil {
			return err
		}
		for _, row := range rows {
			_, err := fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%d</td></tr>",
				templ.EscapeString(row.Repository), templ.EscapeString(row.PullRequest), row.Clients)
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}
