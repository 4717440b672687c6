//go:build !tinygo && unix

package arch

import "golang.org/x/sys/unix"

// ClockTicksPerSec is the rate of Clock: microseconds of CLOCK_MONOTONIC.
// The 64-bit counter does not wrap within the life of a process.
const ClockTicksPerSec = 1_000_000

// Clock is the host monotonic clock.
type Clock struct{}

func (Clock) TicksPerSec() uint64 { return ClockTicksPerSec }

func (Clock) NowTicks() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		Fatal("arch: clock_gettime: %v", err)
	}
	return uint64(ts.Sec)*ClockTicksPerSec + uint64(ts.Nsec)/1_000
}
