package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateOf returns the calendar date of t (in t's own location) as midnight UTC.
// All ledger comparisons operate on these civil dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// InclusiveMonthCount counts calendar months from start's month to end's month, both included.
// Jan..Mar is 3, Jan..Jan is 1. Returns 0 when end's month precedes start's.
func InclusiveMonthCount(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// DaysBetween returns the whole days from a to b on civil dates; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// MaxDate returns the later of a and b.
func MaxDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// MinDate returns the earlier of a and b.
func MinDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// CalculatePeriodAmount returns monthly × months rounded to the currency scale.
func CalculatePeriodAmount(monthly decimal.Decimal, months int, scale int32) decimal.Decimal {
	return monthly.Mul(decimal.NewFromInt(int64(months))).Round(scale)
}

