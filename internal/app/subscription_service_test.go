package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwatch/internal/domain/subscription"
)

func TestSubscriptionService_Create(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("missing_payment_date_is_computed_from_today", func(t *testing.T) {
		repo := &fakeSubscriptionRepo{}
		svc := NewSubscriptionService(repo, quietLogger())
		svc.now = func() time.Time { return now }

		sub := &subscription.Subscription{
			UserID:     1,
			Name:       "Netflix",
			Price:      decimal.NewFromFloat(15.99),
			CurrencyID: 1,
			Cycle:      subscription.CycleMonths,
			Frequency:  1,
		}
		require.NoError(t, svc.Create(ctx, sub))

		require.Len(t, repo.created, 1)
		require.True(t, sub.NextPayment.Valid)
		assert.Equal(t, "2026-10-01", sub.NextPayment.Time.Format("2006-01-02"))
	})

	t.Run("explicit_payment_date_is_kept", func(t *testing.T) {
		repo := &fakeSubscriptionRepo{}
		svc := NewSubscriptionService(repo, quietLogger())
		svc.now = func() time.Time { return now }

		due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		sub := &subscription.Subscription{
			UserID:      1,
			Name:        "Spotify",
			Price:       decimal.NewFromFloat(9.99),
			CurrencyID:  1,
			Cycle:       subscription.CycleMonths,
			Frequency:   1,
			NextPayment: sql.NullTime{Time: due, Valid: true},
		}
		require.NoError(t, svc.Create(ctx, sub))
		assert.Equal(t, due, sub.NextPayment.Time)
	})

	t.Run("invalid_billing_fields_are_rejected", func(t *testing.T) {
		svc := NewSubscriptionService(&fakeSubscriptionRepo{}, quietLogger())

		assert.Error(t, svc.Create(ctx, &subscription.Subscription{Name: "x", Cycle: 9, Frequency: 1}))
		assert.Error(t, svc.Create(ctx, &subscription.Subscription{Name: "x", Cycle: subscription.CycleMonths, Frequency: 0}))
		assert.Error(t, svc.Create(ctx, &subscription.Subscription{Cycle: subscription.CycleMonths, Frequency: 1}))
	})
}

func TestSubscriptionService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("advances_from_the_stored_due_date", func(t *testing.T) {
		// Overdue since July: renewal moves to August, not a month from today.
		stored := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
		sub := &subscription.Subscription{
			ID:          1,
			UserID:      1,
			Name:        "Netflix",
			Price:       decimal.NewFromFloat(15.99),
			CurrencyID:  1,
			Cycle:       subscription.CycleMonths,
			Frequency:   1,
			NextPayment: sql.NullTime{Time: stored, Valid: true},
		}
		repo := &fakeSubscriptionRepo{active: []*subscription.Subscription{sub}}
		svc := NewSubscriptionService(repo, quietLogger())

		renewed, err := svc.Renew(ctx, 1)
		require.NoError(t, err)

		// Day-of-month clamped: Jul 31 + 1 month = Aug 31.
		assert.Equal(t, "2026-08-31", renewed.NextPayment.Time.Format("2006-01-02"))
		require.Len(t, repo.updated, 1)
	})

	t.Run("inactive_subscription_cannot_renew", func(t *testing.T) {
		sub := &subscription.Subscription{ID: 1, Inactive: true}
		repo := &fakeSubscriptionRepo{inactive: []*subscription.Subscription{sub}}
		svc := NewSubscriptionService(repo, quietLogger())

		_, err := svc.Renew(ctx, 1)
		assert.Error(t, err)
	})
}

func TestSubscriptionService_Deactivate(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("stamps_cancellation_and_replacement", func(t *testing.T) {
		sub := &subscription.Subscription{ID: 1, UserID: 1, Name: "Netflix",
			Cycle: subscription.CycleMonths, Frequency: 1}
		repo := &fakeSubscriptionRepo{active: []*subscription.Subscription{sub}}
		svc := NewSubscriptionService(repo, quietLogger())
		svc.now = func() time.Time { return now }

		replacement := int64(9)
		require.NoError(t, svc.Deactivate(ctx, 1, &replacement))

		assert.True(t, sub.Inactive)
		assert.Equal(t, now, sub.CancellationDate.Time)
		assert.Equal(t, int64(9), sub.ReplacementSubscriptionID.Int64)
		require.Len(t, repo.updated, 1)
	})

	t.Run("already_inactive_is_a_noop", func(t *testing.T) {
		sub := &subscription.Subscription{ID: 1, Inactive: true}
		repo := &fakeSubscriptionRepo{inactive: []*subscription.Subscription{sub}}
		svc := NewSubscriptionService(repo, quietLogger())

		require.NoError(t, svc.Deactivate(ctx, 1, nil))
		assert.Empty(t, repo.updated)
	})
}
