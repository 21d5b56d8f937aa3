package user

import (
	"context"
)

// Repository defines read access to user accounts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
