// internal/app/reminder_service.go
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"subwatch/internal/billing"
	"subwatch/internal/domain/channel"
	"subwatch/internal/domain/currency"
	"subwatch/internal/domain/notification"
	"subwatch/internal/domain/subscription"
	"subwatch/internal/notify"
)

// cancellationLeadDays is how many days ahead of a cancellation date the
// reminder fires.
const cancellationLeadDays = 7

// defaultNotifyDaysBefore applies when a subscription carries no per-entry
// notification lead.
const defaultNotifyDaysBefore = 1

// Dispatcher fans a notification out across a user's enabled channels.
type Dispatcher interface {
	SendTyped(ctx context.Context, userID int64, title, body string, msgType notification.Type, event *notify.EventContext) map[channel.Kind]bool
}

// ReminderService runs the daily notification passes: upcoming payments,
// overdue payments and imminent cancellations. One subscription failing never
// aborts the rest of a pass.
type ReminderService struct {
	subscriptionRepo subscription.Repository
	currencyRepo     currency.Repository
	dispatcher       Dispatcher
	logger           *logrus.Logger
	now              func() time.Time
}

func NewReminderService(
	sr subscription.Repository,
	cr currency.Repository,
	dispatcher Dispatcher,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		subscriptionRepo: sr,
		currencyRepo:     cr,
		dispatcher:       dispatcher,
		logger:           logger,
		now:              time.Now,
	}
}

// ProcessUpcoming scans every active subscription and notifies owners whose
// next payment is exactly the configured lead days away.
func (s *ReminderService) ProcessUpcoming(ctx context.Context) error {
	subs, err := s.subscriptionRepo.ListActive(ctx)
	if err != nil {
		s.logger.Errorf("Failed to list active subscriptions for upcoming pass: %v", err)
		return err
	}

	now := s.now()
	sent := 0
	for _, sub := range subs {
		if !sub.NextPayment.Valid {
			continue
		}
		lead := sub.NotifyDaysBefore
		if lead <= 0 {
			lead = defaultNotifyDaysBefore
		}
		daysUntil := billing.DaysUntil(now, sub.NextPayment.Time)
		if daysUntil != lead {
			continue
		}

		event := s.eventFor(ctx, sub, daysUntil)
		results := s.dispatcher.SendTyped(ctx, sub.UserID,
			"Payment Reminder: "+sub.Name,
			"Your subscription payment is due soon",
			notification.TypeUpcoming, event)
		if anySent(results) {
			sent++
		}
	}

	s.logger.Infof("Upcoming payment pass complete: %d of %d subscriptions notified", sent, len(subs))
	return nil
}

// ProcessOverdue notifies owners of active subscriptions whose payment date
// has already passed.
func (s *ReminderService) ProcessOverdue(ctx context.Context) error {
	now := s.now()
	subs, err := s.subscriptionRepo.ListOverdue(ctx, now)
	if err != nil {
		s.logger.Errorf("Failed to list overdue subscriptions: %v", err)
		return err
	}

	sent := 0
	for _, sub := range subs {
		if !sub.NextPayment.Valid {
			continue
		}
		event := s.eventFor(ctx, sub, billing.DaysUntil(now, sub.NextPayment.Time))
		results := s.dispatcher.SendTyped(ctx, sub.UserID,
			"Overdue Payment: "+sub.Name,
			"Your subscription payment is overdue",
			notification.TypeOverdue, event)
		if anySent(results) {
			sent++
		}
	}

	s.logger.Infof("Overdue payment pass complete: %d of %d subscriptions notified", sent, len(subs))
	return nil
}

// ProcessCancellationReminders notifies owners of subscriptions whose
// cancellation date lands exactly cancellationLeadDays from today.
func (s *ReminderService) ProcessCancellationReminders(ctx context.Context) error {
	target := s.now().AddDate(0, 0, cancellationLeadDays)
	subs, err := s.subscriptionRepo.ListByCancellationDate(ctx, target)
	if err != nil {
		s.logger.Errorf("Failed to list subscriptions cancelling on %s: %v", target.Format("2006-01-02"), err)
		return err
	}

	sent := 0
	for _, sub := range subs {
		event := s.eventFor(ctx, sub, 0)
		results := s.dispatcher.SendTyped(ctx, sub.UserID,
			"Cancellation Reminder: "+sub.Name,
			"Your subscription will be cancelled soon",
			notification.TypeCancellation, event)
		if anySent(results) {
			sent++
		}
	}

	s.logger.Infof("Cancellation pass complete: %d of %d subscriptions notified", sent, len(subs))
	return nil
}

// eventFor assembles the templated message context for one subscription.
// Symbol lookup failures degrade to "$" rather than dropping the notification.
func (s *ReminderService) eventFor(ctx context.Context, sub *subscription.Subscription, daysUntil int) *notify.EventContext {
	symbol := "$"
	if cur, err := s.currencyRepo.GetByID(ctx, sub.CurrencyID); err != nil {
		s.logger.Warnf("Failed to resolve currency %d for subscription %d: %v", sub.CurrencyID, sub.ID, err)
	} else {
		symbol = CurrencySymbol(cur.Code)
	}

	event := &notify.EventContext{
		SubscriptionID: sub.ID,
		Name:           sub.Name,
		Price:          sub.Price,
		CurrencySymbol: symbol,
		DaysUntil:      daysUntil,
	}
	if sub.NextPayment.Valid {
		event.NextPayment = sub.NextPayment.Time.Format("2006-01-02")
	}
	if sub.CancellationDate.Valid {
		event.CancellationDate = sub.CancellationDate.Time.Format("2006-01-02")
	}
	if sub.URL.Valid {
		event.URL = sub.URL.String
	}
	return event
}

func anySent(results map[channel.Kind]bool) bool {
	for _, ok := range results {
		if ok {
			return true
		}
	}
	return false
}
