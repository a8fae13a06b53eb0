package domain

import (
	"time"

	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

// Period is a closed date interval [Start, End].
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NormalizePeriod snaps (start, end) to the first day of start's month and the
// last day of end's month. It fails only when start is after end.
func NormalizePeriod(start, end time.Time) (Period, error) {
	start, end = utils.DateOf(start), utils.DateOf(end)
	if start.After(end) {
		return Period{}, apperrors.WrapInvalidRange(start, end)
	}
	return Period{
		Start: utils.StartOfMonth(start),
		End:   utils.EndOfMonth(end),
	}, nil
}

// Overlaps reports whether two closed intervals share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.Start.After(other.End) && !other.Start.After(p.End)
}

// Months is the inclusive calendar month count of the period.
func (p Period) Months() int {
	return utils.InclusiveMonthCount(p.Start, p.End)
}

// Union returns the smallest period covering both p and other.
func (p Period) Union(other Period) Period {
	return Period{
		Start: utils.MinDate(p.Start, other.Start),
		End:   utils.MaxDate(p.End, other.End),
	}
}

// IsMonthAligned reports whether Start is a first-of-month and End a last-of-month.
func (p Period) IsMonthAligned() bool {
	return p.Start.Equal(utils.StartOfMonth(p.Start)) && p.End.Equal(utils.EndOfMonth(p.End))
}
