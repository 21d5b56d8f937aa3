package notify

import (
	"context"
	"fmt"
	"strings"

	"subwatch/internal/domain/channel"
)

// ntfyChannel delivers through ntfy.sh or a self-hosted ntfy server. The
// message rides in the request body; title, priority and tags go in headers.
type ntfyChannel struct {
	base
}

func newNtfyChannel(deps Deps, settings map[string]string) Channel {
	return &ntfyChannel{base: newBase(channel.KindNtfy, deps, settings)}
}

func (c *ntfyChannel) topicURL() string {
	server := strings.TrimRight(c.setting("server_url", "https://ntfy.sh"), "/")
	return server + "/" + c.settings["topic"]
}

func (c *ntfyChannel) auth() [2]string {
	return [2]string{c.settings["username"], c.settings["password"]}
}

func (c *ntfyChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("topic") {
		return c.fail(ctx, msg, "Missing Ntfy topic")
	}

	headers := map[string]string{
		"Title":    msg.Title,
		"Priority": c.setting("priority", "default"),
		"Tags":     c.setting("tags", "money_with_wings,calendar"),
	}
	if msg.Event != nil && msg.Event.URL != "" {
		headers["Click"] = msg.Event.URL
	}

	status, _, err := c.postText(ctx, c.topicURL(), c.renderBody(msg), headers, c.auth())
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Ntfy request error: %v", err))
	}
	if status != 200 {
		return c.fail(ctx, msg, fmt.Sprintf("Ntfy API error: %d", status))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *ntfyChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("topic") {
		return false
	}

	headers := map[string]string{
		"Title": "Subwatch Test",
		"Tags":  "white_check_mark",
	}
	status, _, err := c.postText(ctx, c.topicURL(), testMessage, headers, c.auth())
	if err != nil {
		return false
	}
	return status == 200
}
