package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"subwatch/internal/domain/channel"
)

const (
	pushoverMessagesURL = "https://api.pushover.net/1/messages.json"
	pushoverValidateURL = "https://api.pushover.net/1/users/validate.json"
)

// pushoverChannel delivers through the Pushover REST API. Pushover signals
// success with status==1 inside the JSON body, not via the HTTP code alone.
type pushoverChannel struct {
	base
}

func newPushoverChannel(deps Deps, settings map[string]string) Channel {
	return &pushoverChannel{base: newBase(channel.KindPushover, deps, settings)}
}

type pushoverResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// messagesURL honors an api_url override for proxied setups.
func (c *pushoverChannel) messagesURL() string {
	return c.setting("api_url", pushoverMessagesURL)
}

func (c *pushoverChannel) validateURL() string {
	return c.setting("validate_url", pushoverValidateURL)
}

func (c *pushoverChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("user_key", "api_token") {
		return c.fail(ctx, msg, "Missing Pushover user key or API token")
	}

	form := url.Values{}
	form.Set("token", c.settings["api_token"])
	form.Set("user", c.settings["user_key"])
	form.Set("title", msg.Title)
	form.Set("message", c.renderBody(msg))
	form.Set("priority", c.setting("priority", "0"))
	form.Set("sound", c.setting("sound", "pushover"))
	if msg.Event != nil && msg.Event.URL != "" {
		form.Set("url", msg.Event.URL)
		form.Set("url_title", "View Subscription")
	}

	_, body, err := c.postForm(ctx, c.messagesURL(), form, nil)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Pushover request error: %v", err))
	}

	var resp pushoverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Pushover response decode error: %v", err))
	}
	if resp.Status != 1 {
		errs := resp.Errors
		if len(errs) == 0 {
			errs = []string{"Unknown error"}
		}
		return c.fail(ctx, msg, fmt.Sprintf("Pushover API error: %s", strings.Join(errs, ", ")))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *pushoverChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("user_key", "api_token") {
		return false
	}

	form := url.Values{}
	form.Set("token", c.settings["api_token"])
	form.Set("user", c.settings["user_key"])

	_, body, err := c.postForm(ctx, c.validateURL(), form, nil)
	if err != nil {
		return false
	}
	var resp pushoverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Status == 1
}
