//go:build tinygo && cortexm

package arch

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

// ClockTicksPerSec is the AN505 core clock, counted by DWT CYCCNT.
const ClockTicksPerSec = 25_000_000

var (
	demcr    = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000EDFC)))
	dwtCtrl  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE0001000)))
	dwtCycle = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE0001004)))
)

const (
	demcrTRCENA      = 1 << 24
	dwtCtrlCYCCNTENA = 1 << 0
)

// CYCCNT is 32 bits wide and wraps about every 171 seconds. NowTicks
// extends it to 64 bits, which needs at least one read per wrap; the
// scheduler tick reads the clock far more often than that.
var (
	cycleHigh uint32
	cycleLast uint32
)

func startCycleCounter() {
	demcr.SetBits(demcrTRCENA)
	dwtCycle.Set(0)
	dwtCtrl.SetBits(dwtCtrlCYCCNTENA)
	cycleHigh, cycleLast = 0, 0
}

// Clock is the DWT cycle counter.
type Clock struct{}

func (Clock) TicksPerSec() uint64 { return ClockTicksPerSec }

func (Clock) NowTicks() uint64 {
	mask := arm.DisableInterrupts()
	low := dwtCycle.Get()
	if low < cycleLast {
		cycleHigh++
	}
	cycleLast = low
	high := cycleHigh
	arm.EnableInterrupts(mask)
	return uint64(high)<<32 | uint64(low)
}
