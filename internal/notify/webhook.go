package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"subwatch/internal/domain/channel"
)

// webhookChannel delivers to any custom endpoint. The payload encoding
// (json or form) and the accepted status codes are configurable.
type webhookChannel struct {
	base
}

func newWebhookChannel(deps Deps, settings map[string]string) Channel {
	return &webhookChannel{base: newBase(channel.KindWebhook, deps, settings)}
}

// customHeaders decodes the optional "headers" setting, a JSON object of
// header name to value.
func (c *webhookChannel) customHeaders() map[string]string {
	raw := c.settings["headers"]
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		c.deps.Logger.Warnf("Ignoring malformed webhook headers setting: %v", err)
		return nil
	}
	return headers
}

// successCodes parses the optional comma-separated "success_codes" setting,
// defaulting to 200, 201, 202 and 204.
func (c *webhookChannel) successCodes() map[int]bool {
	codes := map[int]bool{200: true, 201: true, 202: true, 204: true}
	raw := c.settings["success_codes"]
	if raw == "" {
		return codes
	}
	parsed := map[int]bool{}
	for _, part := range strings.Split(raw, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		parsed[code] = true
	}
	if len(parsed) == 0 {
		return codes
	}
	return parsed
}

func (c *webhookChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("url") {
		return c.fail(ctx, msg, "Missing webhook URL")
	}

	rendered := c.renderBody(msg)
	headers := c.customHeaders()

	var status int
	var err error
	if c.setting("format", "json") == "form" {
		form := url.Values{}
		form.Set("title", msg.Title)
		form.Set("message", rendered)
		form.Set("source", "subwatch")
		status, _, err = c.postForm(ctx, c.settings["url"], form, headers)
	} else {
		payload := map[string]any{
			"title":   msg.Title,
			"message": rendered,
			"source":  "subwatch",
			"type":    msg.Type,
		}
		if ev := msg.Event; ev != nil {
			payload["subscription"] = map[string]any{
				"id":           ev.SubscriptionID,
				"name":         ev.Name,
				"price":        ev.Price,
				"next_payment": ev.NextPayment,
				"url":          ev.URL,
			}
		}
		status, _, err = c.postJSON(ctx, c.settings["url"], payload, headers)
	}

	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Webhook request error: %v", err))
	}
	if !c.successCodes()[status] {
		return c.fail(ctx, msg, fmt.Sprintf("Webhook error: %d", status))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *webhookChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("url") {
		return false
	}

	payload := map[string]any{
		"title":   "Subwatch Test",
		"message": testMessage,
		"source":  "subwatch",
		"test":    true,
	}
	status, _, err := c.postJSON(ctx, c.settings["url"], payload, c.customHeaders())
	if err != nil {
		return false
	}
	return c.successCodes()[status]
}
