// internal/infra/database/postgres_subscription_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subwatch/internal/domain/subscription"
)

var ErrSubscriptionNotFound = fmt.Errorf("subscription not found")

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// selectColumns joins category and payment method names so the statistics
// aggregator can bucket without extra round trips.
const subscriptionSelect = `
	SELECT s.id, s.user_id, s.name, s.url, s.notes, s.price, s.currency_id,
	       s.cycle, s.frequency, s.next_payment, s.auto_renew,
	       s.category_id, c.name, s.payment_method_id, pm.name,
	       s.inactive, s.cancellation_date, s.replacement_subscription_id,
	       s.notify_days_before, s.created_at, s.updated_at
	  FROM subscriptions s
	  LEFT JOIN categories c ON c.id = s.category_id
	  LEFT JOIN payment_methods pm ON pm.id = s.payment_method_id`

func scanSubscription(row interface{ Scan(...any) error }) (*subscription.Subscription, error) {
	s := subscription.Subscription{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.URL, &s.Notes, &s.Price, &s.CurrencyID,
		&s.Cycle, &s.Frequency, &s.NextPayment, &s.AutoRenew,
		&s.CategoryID, &s.CategoryName, &s.PaymentMethodID, &s.PaymentMethodName,
		&s.Inactive, &s.CancellationDate, &s.ReplacementSubscriptionID,
		&s.NotifyDaysBefore, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSubscriptions(rows *sql.Rows) ([]*subscription.Subscription, error) {
	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `INSERT INTO subscriptions
	            (user_id, name, url, notes, price, currency_id, cycle, frequency,
	             next_payment, auto_renew, category_id, payment_method_id,
	             inactive, cancellation_date, replacement_subscription_id, notify_days_before)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Name, s.URL, s.Notes, s.Price, s.CurrencyID, s.Cycle, s.Frequency,
		s.NextPayment, s.AutoRenew, s.CategoryID, s.PaymentMethodID,
		s.Inactive, s.CancellationDate, s.ReplacementSubscriptionID, s.NotifyDaysBefore,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.id = $1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("error getting subscription by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `UPDATE subscriptions
	             SET name = $1, url = $2, notes = $3, price = $4, currency_id = $5,
	                 cycle = $6, frequency = $7, next_payment = $8, auto_renew = $9,
	                 category_id = $10, payment_method_id = $11, inactive = $12,
	                 cancellation_date = $13, replacement_subscription_id = $14,
	                 notify_days_before = $15, updated_at = NOW()
	           WHERE id = $16
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.URL, s.Notes, s.Price, s.CurrencyID,
		s.Cycle, s.Frequency, s.NextPayment, s.AutoRenew,
		s.CategoryID, s.PaymentMethodID, s.Inactive,
		s.CancellationDate, s.ReplacementSubscriptionID,
		s.NotifyDaysBefore, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("error updating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.user_id = $1 AND s.inactive = FALSE ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying active subscriptions by user: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListInactiveByUser(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.user_id = $1 AND s.inactive = TRUE ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying inactive subscriptions by user: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListActive(ctx context.Context) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.inactive = FALSE ORDER BY s.user_id, s.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying active subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.inactive = FALSE AND s.next_payment < $1 ORDER BY s.next_payment`
	rows, err := r.db.QueryContext(ctx, query, dateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("error querying overdue subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListByCancellationDate(ctx context.Context, date time.Time) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.cancellation_date = $1 ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("error querying subscriptions by cancellation date: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *PostgresSubscriptionRepository) ListDueWithin(ctx context.Context, userID int64, from, to time.Time) ([]*subscription.Subscription, error) {
	query := subscriptionSelect + `
	 WHERE s.user_id = $1 AND s.inactive = FALSE
	   AND s.next_payment >= $2 AND s.next_payment <= $3
	 ORDER BY s.next_payment`
	rows, err := r.db.QueryContext(ctx, query, userID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("error querying subscriptions due within range: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// dateOnly truncates a timestamp to its calendar date for DATE-typed columns.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
