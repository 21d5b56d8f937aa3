package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"subwatch/internal/domain/channel"
)

const pushPlusSendURL = "http://www.pushplus.plus/send"

// pushPlusChannel delivers through the PushPlus API, which signals success
// with code==200 inside the JSON body.
type pushPlusChannel struct {
	base
}

func newPushPlusChannel(deps Deps, settings map[string]string) Channel {
	return &pushPlusChannel{base: newBase(channel.KindPushPlus, deps, settings)}
}

type pushPlusPayload struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Topic    string `json:"topic,omitempty"`
}

type pushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *pushPlusChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("token") {
		return c.fail(ctx, msg, "Missing PushPlus token")
	}

	payload := pushPlusPayload{
		Token:    c.settings["token"],
		Title:    msg.Title,
		Content:  c.renderBody(msg),
		Template: c.setting("template", "html"),
		Topic:    c.settings["topic"],
	}

	_, body, err := c.postJSON(ctx, pushPlusSendURL, payload, nil)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("PushPlus request error: %v", err))
	}

	var resp pushPlusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("PushPlus response decode error: %v", err))
	}
	if resp.Code != 200 {
		errMsg := resp.Msg
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		return c.fail(ctx, msg, fmt.Sprintf("PushPlus API error: %s", errMsg))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *pushPlusChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("token") {
		return false
	}

	payload := pushPlusPayload{
		Token:    c.settings["token"],
		Title:    "Subwatch Test",
		Content:  testMessage,
		Template: "txt",
	}

	_, body, err := c.postJSON(ctx, pushPlusSendURL, payload, nil)
	if err != nil {
		return false
	}
	var resp pushPlusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Code == 200
}
