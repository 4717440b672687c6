// Package arch is the architecture abstraction layer of the kernel.
//
// It isolates the portable scheduler from processor mechanics: context
// switching, interrupt masking, memory-protection checks and the monotonic
// clock. Exactly one backend compiles into a build and binds the concrete
// ThreadState, BareSpinLock, Clock and MemoryConfig types:
//
//	host     !tinygo            goroutine-per-thread simulator
//	cortexm  tinygo && cortexm  ARMv8-M (MPS2-AN505)
//
// Bring-up is two-phase: EarlyInit, then Init, both before the first
// ContextSwitch.
package arch

import (
	"errors"
	"sync/atomic"

	"kestrel/ktime"
)

// Backend is the bring-up and interrupt surface of one architecture.
//
// Each backend asserts it at compile time; the package functions call the
// concrete backend value directly, so there is no dynamic dispatch.
type Backend interface {
	EarlyInit()
	Init()
	EnableInterrupts()
	DisableInterrupts()
	InterruptsEnabled() bool

	controller() *irqController
	activate(mc *MemoryConfig)
	active() *MemoryConfig
}

var _ ktime.Clock = Clock{}

var (
	ErrAccessDenied    = errors.New("arch: access denied")
	ErrInvalidArgument = errors.New("arch: invalid argument")
)

// Stage is the bring-up progress of the architecture.
type Stage uint32

const (
	StageReset Stage = iota
	StageEarly
	StageReady
)

func (s Stage) String() string {
	switch s {
	case StageReset:
		return "reset"
	case StageEarly:
		return "early"
	case StageReady:
		return "ready"
	default:
		return "unknown"
	}
}

var stage atomic.Uint32

// BootStage reports how far bring-up has progressed.
func BootStage() Stage {
	return Stage(stage.Load())
}

// EarlyInit brings up the minimum needed for diagnostic output. It must be
// the first arch call and runs exactly once.
func EarlyInit() {
	if s := BootStage(); s != StageReset {
		Fatal("arch: early init in stage %s", s)
	}
	backend.EarlyInit()
	stage.Store(uint32(StageEarly))
}

// Init performs full bring-up. It runs exactly once, after EarlyInit.
func Init() {
	if s := BootStage(); s != StageEarly {
		Fatal("arch: init in stage %s", s)
	}
	backend.Init()
	stage.Store(uint32(StageReady))
}

// EnableInterrupts unmasks interrupts on the calling core and dispatches any
// line that became pending while they were masked.
func EnableInterrupts() {
	backend.EnableInterrupts()
	backend.controller().dispatch()
}

// DisableInterrupts masks interrupts on the calling core.
func DisableInterrupts() {
	backend.DisableInterrupts()
}

// InterruptsEnabled reports the mask state set by the last Enable/Disable.
func InterruptsEnabled() bool {
	return backend.InterruptsEnabled()
}

// ActiveMemoryConfig returns the protection domain of the running context.
func ActiveMemoryConfig() *MemoryConfig {
	return backend.active()
}

// Now reads the architecture clock.
func Now() ktime.Instant[Clock] {
	return ktime.Now[Clock]()
}
