package subscription

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// CycleUnit is the granularity of a subscription's billing recurrence.
type CycleUnit int

const (
	CycleDays   CycleUnit = 1
	CycleWeeks  CycleUnit = 2
	CycleMonths CycleUnit = 3
	CycleYears  CycleUnit = 4
)

// Valid reports whether u is one of the four supported cycle units.
func (u CycleUnit) Valid() bool {
	return u >= CycleDays && u <= CycleYears
}

// Subscription is a recurring payment entry being tracked for a user.
type Subscription struct {
	ID         int64
	UserID     int64
	Name       string
	URL        sql.NullString
	Notes      sql.NullString
	Price      decimal.Decimal
	CurrencyID int64

	Cycle       CycleUnit
	Frequency   int // every N cycle units, >= 1
	NextPayment sql.NullTime
	AutoRenew   bool

	CategoryID        sql.NullInt64
	CategoryName      sql.NullString // joined in by the repository
	PaymentMethodID   sql.NullInt64
	PaymentMethodName sql.NullString // joined in by the repository

	Inactive                  bool
	CancellationDate          sql.NullTime
	ReplacementSubscriptionID sql.NullInt64

	NotifyDaysBefore int

	CreatedAt time.Time
	UpdatedAt time.Time
}
