// Package ktime provides clock-scoped monotonic timestamps.
//
// An Instant carries the clock type it was read from, so instants taken from
// different clocks cannot be compared or subtracted.
package ktime

import (
	"math"
	"math/bits"
	"time"
)

// Clock is a monotonic tick source.
//
// Implementations are zero-size types: generic code reaches the clock through
// its zero value.
type Clock interface {
	TicksPerSec() uint64
	NowTicks() uint64
}

// Instant is an opaque monotonic timestamp of clock C.
type Instant[C Clock] struct {
	ticks uint64
}

// Now reads clock C.
func Now[C Clock]() Instant[C] {
	var c C
	return Instant[C]{ticks: c.NowTicks()}
}

// FromTicks builds an Instant from a raw counter value of clock C.
func FromTicks[C Clock](ticks uint64) Instant[C] {
	return Instant[C]{ticks: ticks}
}

// Ticks returns the raw counter value.
func (i Instant[C]) Ticks() uint64 { return i.ticks }

func (i Instant[C]) Before(j Instant[C]) bool { return i.ticks < j.ticks }
func (i Instant[C]) After(j Instant[C]) bool  { return i.ticks > j.ticks }

// Compare returns -1, 0 or +1.
func (i Instant[C]) Compare(j Instant[C]) int {
	switch {
	case i.ticks < j.ticks:
		return -1
	case i.ticks > j.ticks:
		return 1
	default:
		return 0
	}
}

// Sub returns i-j. It is negative when j is after i.
func (i Instant[C]) Sub(j Instant[C]) time.Duration {
	var c C
	if i.ticks >= j.ticks {
		return TicksToDuration(i.ticks-j.ticks, c.TicksPerSec())
	}
	return -TicksToDuration(j.ticks-i.ticks, c.TicksPerSec())
}

// Add returns i+d, saturating at the ends of the counter range.
func (i Instant[C]) Add(d time.Duration) Instant[C] {
	var c C
	if d < 0 {
		n := DurationToTicks(-d, c.TicksPerSec())
		if n > i.ticks {
			return Instant[C]{}
		}
		return Instant[C]{ticks: i.ticks - n}
	}
	n := DurationToTicks(d, c.TicksPerSec())
	sum, carry := bits.Add64(i.ticks, n, 0)
	if carry != 0 {
		return Instant[C]{ticks: math.MaxUint64}
	}
	return Instant[C]{ticks: sum}
}

// DurationToTicks converts a non-negative duration to ticks at the given rate,
// rounding down and saturating on overflow.
func DurationToTicks(d time.Duration, ticksPerSec uint64) uint64 {
	if d <= 0 || ticksPerSec == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), ticksPerSec)
	if hi >= uint64(time.Second) {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}

// TicksToDuration converts ticks at the given rate to a duration, rounding
// down and saturating at the largest representable duration.
func TicksToDuration(ticks, ticksPerSec uint64) time.Duration {
	if ticksPerSec == 0 {
		return 0
	}
	hi, lo := bits.Mul64(ticks, uint64(time.Second))
	if hi >= ticksPerSec {
		return time.Duration(math.MaxInt64)
	}
	q, _ := bits.Div64(hi, lo, ticksPerSec)
	if q > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(q)
}
