package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the operations for reading and updating currency rows.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Currency, error)
	// GetByCode returns every currency row with the given code. Codes are not
	// unique across users, so a rate refresh touches all matching rows.
	GetByCode(ctx context.Context, code string) ([]*Currency, error)
	ListAll(ctx context.Context) ([]*Currency, error)
	UpdateRate(ctx context.Context, id int64, rate decimal.Decimal, updatedAt time.Time) error
}
