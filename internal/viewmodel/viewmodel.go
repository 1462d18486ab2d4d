package viewmodel

import "prfeed/pkg/realtime"

// ChannelRow is one topic on the status page.
type ChannelRow struct {
	Repository  string `json:"repository"`
	PullRequest string `json:"pullRequest"`
	Clients     int    `json:"clients"`
}

// StatusPage lists every known channel and its subscriber count.
type StatusPage struct {
	Title        string       `json:"-"`
	Channels     []ChannelRow `json:"channels"`
	TotalClients int          `json:"totalClients"`
	Idle         int          `json:"idleChannels"` // channels with no subscribers
}

// NewStatusPage builds the page from registry stats.
func NewStatusPage(stats []realtime.ChannelStats) StatusPage {
	page := StatusPage{
		Title:    "prfeed channels",
		Channels: make([]ChannelRow, 0, len(stats)),
	}
	for _, s := range stats {
		page.Channels = append(page.Channels, ChannelRow{
			Repository:  s.Topic.Repository,
			PullRequest: s.Topic.PullRequest,
			Clients:     s.Clients,
		})
		page.TotalClients += s.Clients
		if s.Clients == 0 {
			page.Idle++
		}
	}
	return page
}
