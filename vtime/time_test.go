package vtime_test

import (
	"testing"

	"github.com/joeycumines/schedsi/vtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoTimeoutIsDistinctFromZero(t *testing.T) {
	assert.True(t, vtime.NoTimeout.IsNoTimeout())
	assert.False(t, vtime.Zero.IsNoTimeout())
	assert.True(t, vtime.Zero.IsZero())
	assert.False(t, vtime.NoTimeout.Equal(vtime.Zero))
}

func TestCmpOrdersNoTimeoutLast(t *testing.T) {
	ten := vtime.FromInt(10)
	assert.True(t, ten.Before(vtime.NoTimeout))
	assert.True(t, vtime.NoTimeout.After(ten))
	assert.True(t, vtime.NoTimeout.Equal(vtime.NoTimeout))
}

func TestExactArithmeticNoRoundoff(t *testing.T) {
	third := vtime.FromRat(1, 3)
	sum := third.Add(third).Add(third)
	assert.True(t, sum.Equal(vtime.FromInt(1)))
}

func TestMin(t *testing.T) {
	a := vtime.FromInt(3)
	b := vtime.FromInt(5)
	assert.True(t, vtime.Min(a, b).Equal(a))
	assert.True(t, vtime.Min(vtime.NoTimeout, b).Equal(b))
	assert.True(t, vtime.Min(vtime.NoTimeout, vtime.NoTimeout).IsNoTimeout())
}

func TestAddSubPanicOnNoTimeout(t *testing.T) {
	assert.Panics(t, func() { _ = vtime.NoTimeout.Add(vtime.FromInt(1)) })
	assert.Panics(t, func() { _ = vtime.FromInt(1).Sub(vtime.NoTimeout) })
}

func TestTextRoundTrip(t *testing.T) {
	for _, tm := range []vtime.Time{vtime.NoTimeout, vtime.Zero, vtime.FromInt(42), vtime.FromRat(7, 3)} {
		b, err := tm.MarshalText()
		require.NoError(t, err)
		var out vtime.Time
		require.NoError(t, out.UnmarshalText(b))
		assert.True(t, tm.Equal(out), "round trip of %v via %q", tm, b)
	}
}

func TestStringSentinel(t *testing.T) {
	assert.Equal(t, "none", vtime.NoTimeout.String())
	assert.Equal(t, "0", vtime.Zero.String())
}
