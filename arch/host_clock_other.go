//go:build !tinygo && !unix

package arch

import "time"

// ClockTicksPerSec is the rate of Clock: microseconds since process start.
const ClockTicksPerSec = 1_000_000

var epoch = time.Now()

// Clock is the host monotonic clock, read through the runtime's monotonic
// reading where CLOCK_MONOTONIC is not available.
type Clock struct{}

func (Clock) TicksPerSec() uint64 { return ClockTicksPerSec }

func (Clock) NowTicks() uint64 {
	return uint64(time.Since(epoch) / time.Microsecond)
}
