package notify

import (
	"context"
	"fmt"

	"subwatch/internal/domain/channel"
)

// discordChannel delivers through a Discord webhook. Discord returns 204 on
// a plain webhook post and 200 with ?wait=true, so both count as success.
type discordChannel struct {
	base
}

func newDiscordChannel(deps Deps, settings map[string]string) Channel {
	return &discordChannel{base: newBase(channel.KindDiscord, deps, settings)}
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content,omitempty"`
	Embeds   []discordEmbed `json:"embeds,omitempty"`
}

func (c *discordChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("webhook_url") {
		return c.fail(ctx, msg, "Missing Discord webhook URL")
	}

	embed := discordEmbed{
		Title:       msg.Title,
		Description: c.renderBody(msg),
		Color:       0xFF8C00,
	}
	if ev := msg.Event; ev != nil {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "Subscription", Value: ev.Name, Inline: true},
			discordEmbedField{Name: "Amount", Value: ev.CurrencySymbol + ev.Price.StringFixed(2), Inline: true},
		)
		if ev.NextPayment != "" {
			embed.Fields = append(embed.Fields,
				discordEmbedField{Name: "Payment Date", Value: ev.NextPayment, Inline: true})
		}
	}

	payload := discordPayload{Username: senderName, Embeds: []discordEmbed{embed}}
	status, _, err := c.postJSON(ctx, c.settings["webhook_url"], payload, nil)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Discord request error: %v", err))
	}
	if status != 200 && status != 204 {
		return c.fail(ctx, msg, fmt.Sprintf("Discord API error: %d", status))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *discordChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("webhook_url") {
		return false
	}

	payload := discordPayload{Username: senderName, Content: testMessage}
	status, _, err := c.postJSON(ctx, c.settings["webhook_url"], payload, nil)
	if err != nil {
		return false
	}
	return status == 200 || status == 204
}
