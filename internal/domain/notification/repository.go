package notification

import (
	"context"

	"subwatch/internal/domain/channel"
)

// Repository defines append-only persistence for notification records.
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	// ListByUser returns the most recent records for a user, optionally
	// filtered to one channel kind. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID int64, kind *channel.Kind, limit int) ([]*Record, error)
}
