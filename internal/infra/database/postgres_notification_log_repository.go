// internal/infra/database/postgres_notification_log_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"subwatch/internal/domain/channel"
	"subwatch/internal/domain/notification"
)

type PostgresNotificationLogRepository struct {
	db *sql.DB
}

func NewPostgresNotificationLogRepository(db *sql.DB) *PostgresNotificationLogRepository {
	return &PostgresNotificationLogRepository{db: db}
}

// Append inserts one delivery log row. The table is append-only; this core
// never updates or deletes records.
func (r *PostgresNotificationLogRepository) Append(ctx context.Context, rec *notification.Record) error {
	query := `INSERT INTO notification_logs
	            (user_id, channel, notification_type, subscription_id, status, error_message)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Channel, rec.Type, rec.SubscriptionID, rec.Status, rec.ErrorMessage,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error appending notification record: %w", err)
	}
	return nil
}

func (r *PostgresNotificationLogRepository) ListByUser(ctx context.Context, userID int64, kind *channel.Kind, limit int) ([]*notification.Record, error) {
	query := `SELECT id, user_id, channel, notification_type, subscription_id, status, error_message, created_at
	            FROM notification_logs WHERE user_id = $1`
	args := []any{userID}

	if kind != nil {
		query += ` AND channel = $2`
		args = append(args, *kind)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying notification records: %w", err)
	}
	defer rows.Close()

	records := make([]*notification.Record, 0)
	for rows.Next() {
		rec := notification.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Channel, &rec.Type,
			&rec.SubscriptionID, &rec.Status, &rec.ErrorMessage, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning notification record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification record rows: %w", err)
	}
	return records, nil
}
