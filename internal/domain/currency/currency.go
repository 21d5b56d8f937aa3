package currency

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AnchorCode is the reference currency whose rate is fixed at 1.0.
// All stored rates are expressed relative to it.
const AnchorCode = "USD"

// Currency is a per-user currency row with an exchange rate relative to the anchor.
type Currency struct {
	ID          int64
	UserID      int64
	Name        string
	Code        string
	Symbol      string
	Rate        decimal.Decimal // > 0, relative to AnchorCode
	LastUpdated sql.NullTime
	CreatedAt   time.Time
}
