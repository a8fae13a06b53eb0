package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Domain errors
var (
	ErrInvalidRange                = errors.New("start date is after end date")
	ErrRangeBeforeSponsorshipStart = errors.New("payment period starts before sponsorship start")
	ErrOverlappingPeriod           = errors.New("payment period overlaps an existing payment")
	ErrAmountMismatch              = errors.New("payment amount must match monthly amount times months exactly")
	ErrNonPositiveAmount           = errors.New("payment amount must be positive")
	ErrAmountPrecision             = errors.New("amount has more decimal places than the currency allows")
	ErrSponsorshipNotFound         = errors.New("sponsorship not found")
	ErrNotInMutableState           = errors.New("sponsorship is not in a mutable state")
	ErrConcurrentModification      = errors.New("sponsorship was modified concurrently")
	ErrDuplicateTransaction        = errors.New("transaction id already recorded")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
	// Details carries machine-readable context, e.g. the expected amount.
	Details map[string]interface{}
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail attaches a detail value and returns the same error.
func (e *BusinessError) WithDetail(key string, value interface{}) *BusinessError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes
const (
	ErrCodeInvalidRange                = "INVALID_RANGE"
	ErrCodeRangeBeforeSponsorshipStart = "RANGE_BEFORE_SPONSORSHIP_START"
	ErrCodeOverlappingPeriod           = "OVERLAPPING_PERIOD"
	ErrCodeAmountMismatch              = "AMOUNT_MISMATCH"
	ErrCodeNonPositiveAmount           = "NON_POSITIVE_AMOUNT"
	ErrCodeAmountPrecision             = "INVALID_AMOUNT_PRECISION"
	ErrCodeSponsorshipNotFound         = "SPONSORSHIP_NOT_FOUND"
	ErrCodeNotInMutableState           = "NOT_IN_MUTABLE_STATE"
	ErrCodeConcurrentModification      = "CONCURRENT_MODIFICATION"
	ErrCodeDuplicateTransaction        = "DUPLICATE_TRANSACTION"
	ErrCodeDatabaseError               = "DATABASE_ERROR"
	ErrCodeEventPublishError           = "EVENT_PUBLISH_ERROR"
)

func WrapInvalidRange(start, end time.Time) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRange,
		fmt.Sprintf("Start date %s is after end date %s", start.Format(dateLayout), end.Format(dateLayout)),
		ErrInvalidRange,
	).WithDetail("start", start.Format(dateLayout)).WithDetail("end", end.Format(dateLayout))
}

func WrapRangeBeforeSponsorshipStart(start, sponsorshipStart time.Time) *BusinessError {
	return NewBusinessError(
		ErrCodeRangeBeforeSponsorshipStart,
		fmt.Sprintf("Payment period starting %s precedes sponsorship start %s",
			start.Format(dateLayout), sponsorshipStart.Format(dateLayout)),
		ErrRangeBeforeSponsorshipStart,
	).WithDetail("sponsorship_start", sponsorshipStart.Format(dateLayout))
}

// WrapOverlappingPeriod reports the already-paid period the proposal collides with.
func WrapOverlappingPeriod(paymentID string, conflictStart, conflictEnd time.Time) *BusinessError {
	return NewBusinessError(
		ErrCodeOverlappingPeriod,
		fmt.Sprintf("Period %s to %s is already paid by payment %s",
			conflictStart.Format(dateLayout), conflictEnd.Format(dateLayout), paymentID),
		ErrOverlappingPeriod,
	).WithDetail("conflict_payment_id", paymentID).
		WithDetail("conflict_start", conflictStart.Format(dateLayout)).
		WithDetail("conflict_end", conflictEnd.Format(dateLayout))
}

func WrapAmountMismatch(expected, actual decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountMismatch,
		fmt.Sprintf("Payment amount %s does not match expected amount %s", actual.StringFixed(2), expected.StringFixed(2)),
		ErrAmountMismatch,
	).WithDetail("expected", expected.StringFixed(2)).WithDetail("actual", actual.String())
}

func WrapNonPositiveAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeNonPositiveAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount.String()),
		ErrNonPositiveAmount,
	)
}

// WrapAmountPrecision rejects amounts that would change when rounded to scale places.
func WrapAmountPrecision(amount decimal.Decimal, scale int32) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountPrecision,
		fmt.Sprintf("Amount %s has more than %d decimal places", amount.String(), scale),
		ErrAmountPrecision,
	).WithDetail("scale", scale)
}

func WrapSponsorshipNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeSponsorshipNotFound,
		fmt.Sprintf("Sponsorship with ID %s not found", id),
		ErrSponsorshipNotFound,
	)
}

func WrapNotInMutableState(id, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotInMutableState,
		fmt.Sprintf("Sponsorship with ID %s is %s", id, status),
		ErrNotInMutableState,
	).WithDetail("status", status)
}

func WrapConcurrentModification(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("Sponsorship with ID %s was modified by another request", id),
		ErrConcurrentModification,
	)
}

func WrapDuplicateTransaction(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateTransaction,
		fmt.Sprintf("Transaction %s has already been recorded", transactionID),
		ErrDuplicateTransaction,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapEventPublishError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeEventPublishError,
		"event publish failed",
		err,
	)
}

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
