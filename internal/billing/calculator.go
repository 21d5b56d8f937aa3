// Package billing holds the pure billing-cycle date and money arithmetic.
package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"subwatch/internal/domain/subscription"
)

// ErrInvalidCycle is returned when a cycle unit outside the four supported
// values reaches the calculator.
var ErrInvalidCycle = errors.New("invalid billing cycle")

// Average days and weeks per month. Deliberate approximations (365.25/12 and
// 52/12), not calendar-exact.
var (
	avgDaysPerMonth  = decimal.NewFromFloat(30.44)
	avgWeeksPerMonth = decimal.NewFromFloat(4.33)
	twelve           = decimal.NewFromInt(12)
)

// NextPaymentDate advances start by one billing period. Days and weeks add a
// fixed-length span; months and years add calendar units, preserving the
// day-of-month and clamping to the last valid day of the resulting month
// (Jan 31 + 1 month = Feb 28/29).
func NextPaymentDate(start time.Time, cycle subscription.CycleUnit, frequency int) (time.Time, error) {
	if frequency < 1 {
		return time.Time{}, fmt.Errorf("invalid frequency %d: must be >= 1", frequency)
	}

	switch cycle {
	case subscription.CycleDays:
		return start.AddDate(0, 0, frequency), nil
	case subscription.CycleWeeks:
		return start.AddDate(0, 0, 7*frequency), nil
	case subscription.CycleMonths:
		return addMonthsClamped(start, frequency), nil
	case subscription.CycleYears:
		return addMonthsClamped(start, 12*frequency), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %d (must be 1=days, 2=weeks, 3=months or 4=years)", ErrInvalidCycle, cycle)
	}
}

// addMonthsClamped adds months without Go's AddDate overflow into the next
// month: the day-of-month is capped at the target month's last day.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthlyCost converts a subscription price to its monthly equivalent.
// $30 every 3 months = $10/month; $120 yearly = $10/month; $10 weekly ≈ $43.30/month.
func MonthlyCost(price decimal.Decimal, cycle subscription.CycleUnit, frequency int) (decimal.Decimal, error) {
	if frequency < 1 {
		return decimal.Zero, fmt.Errorf("invalid frequency %d: must be >= 1", frequency)
	}
	freq := decimal.NewFromInt(int64(frequency))

	switch cycle {
	case subscription.CycleDays:
		return price.Div(freq).Mul(avgDaysPerMonth), nil
	case subscription.CycleWeeks:
		return price.Div(freq).Mul(avgWeeksPerMonth), nil
	case subscription.CycleMonths:
		return price.Div(freq), nil
	case subscription.CycleYears:
		return price.Div(freq.Mul(twelve)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidCycle, cycle)
	}
}

// YearlyCost converts a subscription price to its yearly equivalent.
func YearlyCost(price decimal.Decimal, cycle subscription.CycleUnit, frequency int) (decimal.Decimal, error) {
	monthly, err := MonthlyCost(price, cycle, frequency)
	if err != nil {
		return decimal.Zero, err
	}
	return monthly.Mul(twelve), nil
}

// DaysUntil returns the signed whole-day distance from now's calendar date to
// due's calendar date: 0 means due today, negative means overdue.
func DaysUntil(now, due time.Time) int {
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// CycleLabel renders a human-readable recurrence label such as "Monthly" or
// "Every 3 months".
func CycleLabel(cycle subscription.CycleUnit, frequency int) string {
	if frequency == 1 {
		switch cycle {
		case subscription.CycleDays:
			return "Daily"
		case subscription.CycleWeeks:
			return "Weekly"
		case subscription.CycleMonths:
			return "Monthly"
		case subscription.CycleYears:
			return "Yearly"
		}
		return "Unknown"
	}

	switch cycle {
	case subscription.CycleDays:
		return fmt.Sprintf("Every %d days", frequency)
	case subscription.CycleWeeks:
		return fmt.Sprintf("Every %d weeks", frequency)
	case subscription.CycleMonths:
		return fmt.Sprintf("Every %d months", frequency)
	case subscription.CycleYears:
		return fmt.Sprintf("Every %d years", frequency)
	}
	return "Unknown"
}
