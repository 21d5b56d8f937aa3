// internal/app/subscription_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"subwatch/internal/billing"
	"subwatch/internal/domain/subscription"
)

// SubscriptionService covers the lifecycle operations on subscription
// entries: creation, renewal after a payment and deactivation.
type SubscriptionService struct {
	subscriptionRepo subscription.Repository
	logger           *logrus.Logger
	now              func() time.Time
}

func NewSubscriptionService(sr subscription.Repository, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: sr,
		logger:           logger,
		now:              time.Now,
	}
}

// Create validates the billing fields and persists a new subscription. When
// no next payment date is given, one is computed a full cycle from today.
func (s *SubscriptionService) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub.Name == "" {
		return fmt.Errorf("subscription name is required")
	}
	if !sub.Cycle.Valid() {
		return fmt.Errorf("%w: %d", billing.ErrInvalidCycle, sub.Cycle)
	}
	if sub.Frequency < 1 {
		return fmt.Errorf("invalid frequency %d: must be >= 1", sub.Frequency)
	}
	if sub.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}

	if !sub.NextPayment.Valid {
		next, err := billing.NextPaymentDate(s.now(), sub.Cycle, sub.Frequency)
		if err != nil {
			return fmt.Errorf("compute next payment date: %w", err)
		}
		sub.NextPayment = sql.NullTime{Time: next, Valid: true}
	}

	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	s.logger.Infof("Created subscription %d (%s) for user %d", sub.ID, sub.Name, sub.UserID)
	return nil
}

// Renew advances a subscription's next payment date by one billing period
// from the stored due date, not from today. Renewing an already overdue entry
// therefore keeps its payment anniversary.
func (s *SubscriptionService) Renew(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("renew subscription %d: %w", id, err)
	}
	if sub.Inactive {
		return nil, fmt.Errorf("subscription %d is inactive", id)
	}
	if !sub.NextPayment.Valid {
		return nil, fmt.Errorf("subscription %d has no payment date to advance", id)
	}

	next, err := billing.NextPaymentDate(sub.NextPayment.Time, sub.Cycle, sub.Frequency)
	if err != nil {
		return nil, fmt.Errorf("renew subscription %d: %w", id, err)
	}
	sub.NextPayment = sql.NullTime{Time: next, Valid: true}

	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("renew subscription %d: %w", id, err)
	}
	s.logger.Infof("Renewed subscription %d (%s), next payment %s", sub.ID, sub.Name, next.Format("2006-01-02"))
	return sub, nil
}

// Deactivate marks a subscription inactive and stamps its cancellation date.
// An optional replacement id records what the user switched to.
func (s *SubscriptionService) Deactivate(ctx context.Context, id int64, replacementID *int64) error {
	sub, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate subscription %d: %w", id, err)
	}
	if sub.Inactive {
		return nil
	}

	sub.Inactive = true
	sub.CancellationDate = sql.NullTime{Time: s.now(), Valid: true}
	if replacementID != nil {
		sub.ReplacementSubscriptionID = sql.NullInt64{Int64: *replacementID, Valid: true}
	}

	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("deactivate subscription %d: %w", id, err)
	}
	s.logger.Infof("Deactivated subscription %d (%s)", sub.ID, sub.Name)
	return nil
}
