// internal/notify/dispatcher.go
package notify

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"subwatch/internal/domain/channel"
	"subwatch/internal/domain/notification"
	idb "subwatch/internal/infra/database"
)

// Dispatcher resolves a user's enabled channels and fans one message out
// across them. Channels are invoked independently: a panic, timeout or
// failure in one never prevents the others from running.
type Dispatcher struct {
	channelRepo channel.Repository
	recordRepo  notification.Repository
	logger      *logrus.Logger
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewDispatcher(
	cr channel.Repository,
	nr notification.Repository,
	logger *logrus.Logger,
	sendsPerSecond float64,
) *Dispatcher {
	return &Dispatcher{
		channelRepo: cr,
		recordRepo:  nr,
		logger:      logger,
		httpClient:  &http.Client{Timeout: sendTimeout},
		limiter:     rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
	}
}

func (d *Dispatcher) deps(userID int64) Deps {
	return Deps{
		UserID:  userID,
		HTTP:    d.httpClient,
		Logger:  d.logger,
		Records: d.recordRepo,
	}
}

// resolve builds ready-to-send channels for every kind the user has both
// enabled and configured, optionally restricted to a filter list.
func (d *Dispatcher) resolve(ctx context.Context, userID int64, only []channel.Kind) []Channel {
	settings, err := d.channelRepo.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, idb.ErrSettingsNotFound) {
			d.logger.Errorf("Failed to load notification settings for user %d: %v", userID, err)
		}
		return nil
	}

	var filter map[channel.Kind]bool
	if len(only) > 0 {
		filter = make(map[channel.Kind]bool, len(only))
		for _, k := range only {
			filter[k] = true
		}
	}

	channels := make([]Channel, 0, len(channel.Kinds))
	for _, kind := range channel.Kinds {
		if !settings.IsEnabled(kind) {
			continue
		}
		if filter != nil && !filter[kind] {
			continue
		}

		cfg, err := d.channelRepo.GetConfig(ctx, userID, kind)
		if err != nil {
			if !errors.Is(err, idb.ErrChannelNotConfigured) {
				d.logger.Errorf("Failed to load %s config for user %d: %v", kind, userID, err)
			}
			continue
		}

		ch := NewChannel(kind, d.deps(userID), cfg.Settings)
		if ch == nil {
			d.logger.Warnf("No channel implementation registered for kind %s", kind)
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}

// SendNotification delivers one message across the user's enabled channels
// and returns the per-channel outcome. Callers treat "at least one true" as
// aggregate success.
func (d *Dispatcher) SendNotification(
	ctx context.Context,
	userID int64,
	title, body string,
	event *EventContext,
	only []channel.Kind,
) map[channel.Kind]bool {
	msgType := notification.TypeManual
	if event != nil {
		msgType = event.eventType()
	}
	msg := Message{Title: title, Body: body, Type: msgType, Event: event}

	results := make(map[channel.Kind]bool)
	for _, ch := range d.resolve(ctx, userID, only) {
		results[ch.Kind()] = d.sendOne(ctx, ch, msg)
	}
	return results
}

// SendTyped is SendNotification with an explicit notification type, used by
// the scheduler jobs where the type is known up front.
func (d *Dispatcher) SendTyped(
	ctx context.Context,
	userID int64,
	title, body string,
	msgType notification.Type,
	event *EventContext,
) map[channel.Kind]bool {
	msg := Message{Title: title, Body: body, Type: msgType, Event: event}

	results := make(map[channel.Kind]bool)
	for _, ch := range d.resolve(ctx, userID, nil) {
		results[ch.Kind()] = d.sendOne(ctx, ch, msg)
	}
	return results
}

// sendOne invokes a single channel behind the shared rate limiter, isolating
// panics so a misbehaving variant cannot take down the whole dispatch.
func (d *Dispatcher) sendOne(ctx context.Context, ch Channel, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Panic in %s channel send: %v", ch.Kind(), r)
			ok = false
		}
	}()

	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Warnf("Rate limiter wait aborted for %s channel: %v", ch.Kind(), err)
		return false
	}
	return ch.Send(ctx, msg)
}

// TestChannel resolves a single channel's config and runs its connection
// probe. Unknown, disabled or unconfigured kinds report false.
func (d *Dispatcher) TestChannel(ctx context.Context, userID int64, kind channel.Kind) bool {
	if _, known := factories[kind]; !known {
		return false
	}

	cfg, err := d.channelRepo.GetConfig(ctx, userID, kind)
	if err != nil {
		if !errors.Is(err, idb.ErrChannelNotConfigured) {
			d.logger.Errorf("Failed to load %s config for user %d: %v", kind, userID, err)
		}
		return false
	}

	ch := NewChannel(kind, d.deps(userID), cfg.Settings)
	if ch == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Panic in %s channel test: %v", kind, r)
		}
	}()
	return ch.Test(ctx)
}

// eventType maps an event context to its notification type by which date
// fields are populated. Cancellation reminders carry a cancellation date;
// overdue events have a negative day count.
func (ev *EventContext) eventType() notification.Type {
	switch {
	case ev.CancellationDate != "":
		return notification.TypeCancellation
	case ev.DaysUntil < 0:
		return notification.TypeOverdue
	default:
		return notification.TypeUpcoming
	}
}
