package user

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// User holds the fields of an account that the notification and statistics
// core reads. Authentication and profile data live outside this core.
type User struct {
	ID             int64
	Username       string
	Email          string
	MainCurrencyID sql.NullInt64
	Budget         decimal.NullDecimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
