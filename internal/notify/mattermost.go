package notify

import (
	"context"
	"fmt"

	"subwatch/internal/domain/channel"
)

// mattermostChannel delivers through a Mattermost incoming webhook.
type mattermostChannel struct {
	base
}

func newMattermostChannel(deps Deps, settings map[string]string) Channel {
	return &mattermostChannel{base: newBase(channel.KindMattermost, deps, settings)}
}

type mattermostField struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

type mattermostAttachment struct {
	Text   string            `json:"text"`
	Color  string            `json:"color"`
	Fields []mattermostField `json:"fields,omitempty"`
}

type mattermostPayload struct {
	Username    string                 `json:"username"`
	IconURL     string                 `json:"icon_url,omitempty"`
	Text        string                 `json:"text"`
	Attachments []mattermostAttachment `json:"attachments,omitempty"`
}

func (c *mattermostChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("webhook_url") {
		return c.fail(ctx, msg, "Missing Mattermost webhook URL")
	}

	attachment := mattermostAttachment{
		Text:  c.renderBody(msg),
		Color: "#FF8C00",
	}
	if ev := msg.Event; ev != nil {
		attachment.Fields = append(attachment.Fields,
			mattermostField{Short: true, Title: "Subscription", Value: ev.Name},
			mattermostField{Short: true, Title: "Amount", Value: ev.CurrencySymbol + ev.Price.StringFixed(2)},
		)
		if ev.NextPayment != "" {
			attachment.Fields = append(attachment.Fields,
				mattermostField{Short: true, Title: "Payment Date", Value: ev.NextPayment})
		}
	}

	payload := mattermostPayload{
		Username:    senderName,
		IconURL:     c.setting("icon_url", ""),
		Text:        fmt.Sprintf("**%s**", msg.Title),
		Attachments: []mattermostAttachment{attachment},
	}

	status, _, err := c.postJSON(ctx, c.settings["webhook_url"], payload, nil)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Mattermost request error: %v", err))
	}
	if status != 200 {
		return c.fail(ctx, msg, fmt.Sprintf("Mattermost API error: %d", status))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *mattermostChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("webhook_url") {
		return false
	}

	payload := mattermostPayload{Username: senderName, Text: testMessage}
	status, _, err := c.postJSON(ctx, c.settings["webhook_url"], payload, nil)
	if err != nil {
		return false
	}
	return status == 200
}
