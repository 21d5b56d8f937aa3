package subscription

import (
	"context"
	"time"
)

// Repository defines the operations for persisting and retrieving Subscription entities.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id int64) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// ListActiveByUser returns a user's active subscriptions with category and
	// payment method names resolved.
	ListActiveByUser(ctx context.Context, userID int64) ([]*Subscription, error)
	ListInactiveByUser(ctx context.Context, userID int64) ([]*Subscription, error)

	// ListActive returns every active subscription across all users, for the
	// daily scheduler scans.
	ListActive(ctx context.Context) ([]*Subscription, error)
	// ListOverdue returns active subscriptions whose next payment date is
	// strictly before asOf.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Subscription, error)
	// ListByCancellationDate returns subscriptions whose cancellation date
	// equals the given calendar date.
	ListByCancellationDate(ctx context.Context, date time.Time) ([]*Subscription, error)
	// ListDueWithin returns a user's active subscriptions due in [from, to],
	// sorted by next payment date ascending.
	ListDueWithin(ctx context.Context, userID int64, from, to time.Time) ([]*Subscription, error)
}
