// Package vtime implements exact, non-floating-point arithmetic for
// simulated time. Every duration, timeout and current_time value in
// schedsi is a vtime.Time; comparisons are total and exact, and
// subtraction never accumulates round-off error the way floating point
// would.
package vtime

import (
	"fmt"
	"math/big"
)

// Time is an exact non-negative rational instant or duration, or the
// distinguished "no timeout" sentinel.
//
// The zero value is NOT a valid Time (it is indistinguishable from the
// sentinel); always construct a Time via Zero, FromInt, FromRat or
// arithmetic on an existing Time.
type Time struct {
	r *big.Rat // nil means "no timeout" (NoTimeout)
}

// NoTimeout is the sentinel meaning "no timeout set". It is distinct
// from Zero: a timer can legitimately elapse at 0, but NoTimeout never
// elapses.
var NoTimeout = Time{r: nil}

// Zero is the additive identity.
var Zero = Time{r: new(big.Rat)}

// FromInt constructs an exact Time from an integer number of (implicit)
// time units.
func FromInt(n int64) Time {
	return Time{r: new(big.Rat).SetInt64(n)}
}

// FromRat constructs an exact Time equal to num/den.
//
// Panics if den is zero.
func FromRat(num, den int64) Time {
	if den == 0 {
		panic("vtime: FromRat: zero denominator")
	}
	return Time{r: big.NewRat(num, den)}
}

// IsNoTimeout reports whether t is the sentinel "no timeout" value.
func (t Time) IsNoTimeout() bool {
	return t.r == nil
}

// IsZero reports whether t is exactly zero. The sentinel is not zero.
func (t Time) IsZero() bool {
	return t.r != nil && t.r.Sign() == 0
}

// Sign returns -1, 0 or +1 matching the sign of t. Panics if t is
// NoTimeout, since the sentinel has no sign.
func (t Time) Sign() int {
	if t.r == nil {
		panic("vtime: Sign: NoTimeout has no sign")
	}
	return t.r.Sign()
}

// Cmp returns -1, 0 or +1 as t is less than, equal to, or greater than
// u. NoTimeout compares as greater than every non-sentinel Time, and
// equal only to itself.
func (t Time) Cmp(u Time) int {
	switch {
	case t.r == nil && u.r == nil:
		return 0
	case t.r == nil:
		return 1
	case u.r == nil:
		return -1
	default:
		return t.r.Cmp(u.r)
	}
}

// Before reports whether t < u (NoTimeout is never before anything).
func (t Time) Before(u Time) bool { return t.Cmp(u) < 0 }

// After reports whether t > u (NoTimeout is after everything but itself).
func (t Time) After(u Time) bool { return t.Cmp(u) > 0 }

// Equal reports whether t == u.
func (t Time) Equal(u Time) bool { return t.Cmp(u) == 0 }

// Add returns t+u. Panics if either operand is NoTimeout.
func (t Time) Add(u Time) Time {
	if t.r == nil || u.r == nil {
		panic("vtime: Add: operand is NoTimeout")
	}
	return Time{r: new(big.Rat).Add(t.r, u.r)}
}

// Sub returns t-u. Panics if either operand is NoTimeout.
func (t Time) Sub(u Time) Time {
	if t.r == nil || u.r == nil {
		panic("vtime: Sub: operand is NoTimeout")
	}
	return Time{r: new(big.Rat).Sub(t.r, u.r)}
}

// MulInt returns t*n. Panics if t is NoTimeout.
func (t Time) MulInt(n int64) Time {
	if t.r == nil {
		panic("vtime: MulInt: operand is NoTimeout")
	}
	return Time{r: new(big.Rat).Mul(t.r, new(big.Rat).SetInt64(n))}
}

// DivInt returns t/n. Panics if t is NoTimeout or n is zero.
func (t Time) DivInt(n int64) Time {
	if t.r == nil {
		panic("vtime: DivInt: operand is NoTimeout")
	}
	if n == 0 {
		panic("vtime: DivInt: zero divisor")
	}
	return Time{r: new(big.Rat).Quo(t.r, new(big.Rat).SetInt64(n))}
}

// Min returns the lesser of t and u, treating NoTimeout as +infinity;
// Min(NoTimeout, NoTimeout) is NoTimeout.
func Min(t, u Time) Time {
	if t.Cmp(u) <= 0 {
		return t
	}
	return u
}

// String renders t for logs and textual event encoding.
func (t Time) String() string {
	if t.r == nil {
		return "none"
	}
	if t.r.IsInt() {
		return t.r.Num().String()
	}
	return t.r.RatString()
}

// Float64 returns an approximate float64 value of t, for display/SVG
// layout purposes only; never used for comparisons or accounting.
func (t Time) Float64() float64 {
	if t.r == nil {
		return 0
	}
	f, _ := t.r.Float64()
	return f
}

// MarshalText implements encoding.TextMarshaler so Time can round-trip
// through the CBOR/text codecs without precision loss.
func (t Time) MarshalText() ([]byte, error) {
	if t.r == nil {
		return []byte("none"), nil
	}
	return []byte(t.r.RatString()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(data []byte) error {
	s := string(data)
	if s == "none" || s == "" {
		*t = NoTimeout
		return nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return fmt.Errorf("vtime: invalid Time literal %q", s)
	}
	t.r = r
	return nil
}
