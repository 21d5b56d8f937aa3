package notification

import (
	"database/sql"
	"time"

	"subwatch/internal/domain/channel"
)

// Type classifies what triggered a notification.
type Type string

const (
	TypeUpcoming     Type = "upcoming"
	TypeOverdue      Type = "overdue"
	TypeCancellation Type = "cancellation"
	TypeManual       Type = "manual"
	TypeTest         Type = "test"
)

// Status is the delivery outcome recorded for one send attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Record is one append-only delivery log row. Rows are written by channel
// sends and never mutated or deleted by this core.
type Record struct {
	ID             int64
	UserID         int64
	Channel        channel.Kind
	Type           Type
	SubscriptionID sql.NullInt64
	Status         Status
	ErrorMessage   sql.NullString
	CreatedAt      time.Time
}
