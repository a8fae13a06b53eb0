// Package clock provides the time source used by the ledger services.
// Services never call time.Now directly; cmd binaries inject Real and tests inject Fixed.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real returns the system time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (c Fixed) Now() time.Time {
	return c.T
}

// Func adapts a function to Clock, e.g. for tests that advance time between calls.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// NewReal returns a Clock backed by the system time.
func NewReal() Clock {
	return Real{}
}

// NewFixed returns a Clock that always returns t.
func NewFixed(t time.Time) Clock {
	return Fixed{T: t}
}

var (
	_ Clock = Real{}
	_ Clock = Fixed{}
	_ Clock = Func(nil)
)
