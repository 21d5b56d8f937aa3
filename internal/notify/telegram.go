package notify

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/telebot.v3"

	"subwatch/internal/domain/channel"
)

// telegramChannel delivers through the Telegram Bot API with the user's own
// bot token, via a telebot adapter. Send uses an offline bot handle so no
// getMe round trip happens per delivery; Test constructs a live bot, which
// validates the token against the API before sending the probe message.
type telegramChannel struct {
	base
}

func newTelegramChannel(deps Deps, settings map[string]string) Channel {
	return &telegramChannel{base: newBase(channel.KindTelegram, deps, settings)}
}

func (c *telegramChannel) bot(offline bool) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:   c.settings["bot_token"],
		Client:  c.deps.HTTP,
		Offline: offline,
	})
}

func (c *telegramChannel) recipient() (telebot.Recipient, error) {
	id, err := strconv.ParseInt(c.settings["chat_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat_id %q", c.settings["chat_id"])
	}
	return telebot.ChatID(id), nil
}

func (c *telegramChannel) Send(ctx context.Context, msg Message) bool {
	if !c.hasRequired("bot_token", "chat_id") {
		return c.fail(ctx, msg, "Missing Telegram bot token or chat ID")
	}

	recipient, err := c.recipient()
	if err != nil {
		return c.fail(ctx, msg, err.Error())
	}
	bot, err := c.bot(true)
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Telegram bot init error: %v", err))
	}

	text := fmt.Sprintf("*%s*\n\n%s", msg.Title, c.renderBody(msg))
	_, err = bot.Send(recipient, text, &telebot.SendOptions{
		ParseMode:             telebot.ModeMarkdown,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return c.fail(ctx, msg, fmt.Sprintf("Telegram API error: %v", err))
	}

	c.record(ctx, msg, true, "")
	return true
}

func (c *telegramChannel) Test(ctx context.Context) bool {
	if !c.hasRequired("bot_token", "chat_id") {
		return false
	}

	recipient, err := c.recipient()
	if err != nil {
		return false
	}
	// Live construction performs the getMe token check.
	bot, err := c.bot(false)
	if err != nil {
		return false
	}

	_, err = bot.Send(recipient, testMessage)
	return err == nil
}
