// Package notify implements the notification channel variants and the
// dispatcher that fans a message out across a user's enabled channels.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"subwatch/internal/domain/channel"
	"subwatch/internal/domain/notification"
)

// sendTimeout bounds every outbound provider call.
const sendTimeout = 10 * time.Second

const senderName = "Subwatch Notifications"
const testMessage = "Subwatch notification test - connection successful!"

// EventContext carries subscription data for templated event messages.
type EventContext struct {
	SubscriptionID   int64
	Name             string
	Price            decimal.Decimal
	CurrencySymbol   string
	NextPayment      string
	DaysUntil        int
	CancellationDate string
	URL              string
}

// Message is one notification to deliver. When Event is set, channels render
// a templated body per the message type instead of using Body verbatim.
type Message struct {
	Title string
	Body  string
	Type  notification.Type
	Event *EventContext
}

// Channel is one delivery mechanism for a single user. Send and Test never
// return errors: every failure becomes false plus a logged reason.
type Channel interface {
	Kind() channel.Kind
	Send(ctx context.Context, msg Message) bool
	Test(ctx context.Context) bool
}

// Deps is what every channel variant needs besides its own settings blob.
type Deps struct {
	UserID  int64
	HTTP    *http.Client
	Logger  *logrus.Logger
	Records notification.Repository
}

type factory func(deps Deps, settings map[string]string) Channel

// factories is the static kind-to-constructor table; dispatch is a lookup.
var factories = map[channel.Kind]factory{
	channel.KindEmail:      newEmailChannel,
	channel.KindDiscord:    newDiscordChannel,
	channel.KindTelegram:   newTelegramChannel,
	channel.KindPushover:   newPushoverChannel,
	channel.KindPushPlus:   newPushPlusChannel,
	channel.KindMattermost: newMattermostChannel,
	channel.KindNtfy:       newNtfyChannel,
	channel.KindGotify:     newGotifyChannel,
	channel.KindWebhook:    newWebhookChannel,
}

// NewChannel builds a channel of the given kind, or nil if the kind is unknown.
func NewChannel(kind channel.Kind, deps Deps, settings map[string]string) Channel {
	f, ok := factories[kind]
	if !ok {
		return nil
	}
	return f(deps, settings)
}

// base holds the behavior shared by all variants: settings access, required
// field validation, and the per-send log record.
type base struct {
	deps     Deps
	kind     channel.Kind
	settings map[string]string
}

func newBase(kind channel.Kind, deps Deps, settings map[string]string) base {
	if settings == nil {
		settings = map[string]string{}
	}
	return base{deps: deps, kind: kind, settings: settings}
}

func (b *base) Kind() channel.Kind { return b.kind }

func (b *base) setting(key, fallback string) string {
	if v := b.settings[key]; v != "" {
		return v
	}
	return fallback
}

// hasRequired reports whether every listed settings key is present and
// non-empty.
func (b *base) hasRequired(keys ...string) bool {
	for _, key := range keys {
		if b.settings[key] == "" {
			return false
		}
	}
	return true
}

// record appends exactly one append-only delivery log row for a send attempt.
func (b *base) record(ctx context.Context, msg Message, ok bool, errMsg string) {
	rec := &notification.Record{
		UserID:  b.deps.UserID,
		Channel: b.kind,
		Type:    msg.Type,
		Status:  notification.StatusSent,
	}
	if msg.Event != nil && msg.Event.SubscriptionID != 0 {
		rec.SubscriptionID = sql.NullInt64{Int64: msg.Event.SubscriptionID, Valid: true}
	}
	if !ok {
		rec.Status = notification.StatusFailed
		rec.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	}
	if err := b.deps.Records.Append(ctx, rec); err != nil {
		b.deps.Logger.Errorf("Failed to append notification record for %s channel: %v", b.kind, err)
	}
}

// fail logs and records a failed attempt, returning false for convenience.
func (b *base) fail(ctx context.Context, msg Message, errMsg string) bool {
	b.deps.Logger.Warnf("Notification via %s failed for user %d: %s", b.kind, b.deps.UserID, errMsg)
	b.record(ctx, msg, false, errMsg)
	return false
}

// renderBody resolves the message body: templated per event type when
// subscription context is attached, verbatim otherwise.
func (b *base) renderBody(msg Message) string {
	if msg.Event == nil {
		return msg.Body
	}
	return formatEventMessage(msg.Event, msg.Type)
}

func formatEventMessage(ev *EventContext, t notification.Type) string {
	url := ev.URL
	if url == "" {
		url = "N/A"
	}

	switch t {
	case notification.TypeUpcoming:
		return fmt.Sprintf(
			"Subscription Payment Reminder\n\n"+
				"Subscription: %s\n"+
				"Amount: %s%s\n"+
				"Payment Date: %s\n"+
				"Days Until Payment: %d\n\n"+
				"Manage your subscription at: %s",
			ev.Name, ev.CurrencySymbol, ev.Price.StringFixed(2), ev.NextPayment, ev.DaysUntil, url)
	case notification.TypeOverdue:
		return fmt.Sprintf(
			"Overdue Subscription Payment\n\n"+
				"Subscription: %s\n"+
				"Amount: %s%s\n"+
				"Due Date: %s\n\n"+
				"Please review and update your subscription.",
			ev.Name, ev.CurrencySymbol, ev.Price.StringFixed(2), ev.NextPayment)
	case notification.TypeCancellation:
		return fmt.Sprintf(
			"Subscription Cancellation Reminder\n\n"+
				"Subscription: %s\n"+
				"Cancellation Date: %s\n\n"+
				"Your subscription will be cancelled soon. Please take necessary action if needed.",
			ev.Name, ev.CancellationDate)
	}
	return fmt.Sprintf("Notification for %s: %s", ev.Name, t)
}
