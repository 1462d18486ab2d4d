package handlers

import (
	"net/http"
	"strings"

	"prfeed/pkg/realtime"
)

// Older clients send the session as a query parameter, newer ones as a
// header. The header wins when both are present.
const (
	SessionHeader = "X-Session-Id"
	SessionQuery  = "sessionId"
)

func sessionFromRequest(r *http.Request) realtime.SessionID {
	if v := strings.TrimSpace(r.Header.Get(SessionHeader)); v != "" {
		return realtime.SessionID(v)
	}
	return realtime.SessionID(strings.TrimSpace(r.URL.Query().Get(SessionQuery)))
}
