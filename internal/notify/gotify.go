package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"subwatch/internal/domain/channel"
)

// gotifyChannel delivers through a self-hosted Gotify server.
type gotifyChannel struct {
	base
}

func newGotifyChannel(deps Deps, settings map[string]string) Channel {
	return &gotifyChannel{base: newBase(channel.KindGotify, deps, settings)}
}

type gotifyPayload struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority int            `json:"priority"`
	Extras   map[string]any `json:"extras,omitempty"`
}

func (c *gotifyChannel) serverURL() string {
	return strings.TrimRight(c.settings["server_url"], "/")
}

func (c *gotifyChannel) messageURL() string {
	return c.serverURL() + "/message?token=" + url.QueryEscape(c.settings["app_token"])
}

func (c *gotifyChannel) priority() int {
	p, err := strconv.Atoi(c.setting("priority", "5"))
	if err != nil {
		return 5
	}
	return p
}

func (c *gotifyChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("server_url", "app_token") {
		return c.fail(ctx, msg, "Missing Gotify server URL or app token")
	}

	payload := gotifyPayload{
		Title:    msg.Title,
		Message:  c.renderBody(msg),
		Priority: c.priority(),
	}
	if msg.Event != nil {
		payload.Extras = map[string]any{
			"client::display": map[string]any{"contentType": "text/markdown"},
		}
	}

	status, _, err := c.postJSON(ctx, c.messageURL(), payload, nil)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Gotify request error: %v", err))
	}
	if status != 200 {
		return c.fail(ctx, msg, fmt.Sprintf("Gotify API error: %d", status))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *gotifyChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("server_url", "app_token") {
		return false
	}

	// Probe server health before exercising the token.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL()+"/health", nil)
	if err != nil {
		return false
	}
	status, _, err := c.do(req)
	if err != nil || status != 200 {
		return false
	}

	payload := gotifyPayload{Title: "Subwatch Test", Message: testMessage, Priority: 5}
	status, _, err = c.postJSON(ctx, c.messageURL(), payload, nil)
	if err != nil {
		return false
	}
	return status == 200
}
