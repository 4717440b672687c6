//go:build tinygo && cortexm

package arch

import (
	"device/arm"

	"kestrel/internal/klog"
)

// Name identifies the backend.
const Name = "cortexm"

const (
	// MinStackSize is the smallest stack a frame may be initialised with.
	MinStackSize = 512

	// MaxMemoryRegions is the number of MPU regions on the AN505 (Cortex-M33).
	MaxMemoryRegions = 8

	// ARMv8-M MPU regions have 32-byte granularity.
	memoryRegionAlign = 32
)

type cortexmArch struct{}

var backend cortexmArch

var _ Backend = cortexmArch{}

var (
	irqc   = newIRQController()
	domain = KernelThreadMemoryConfig
)

func (cortexmArch) EarlyInit() {
	klog.Printf("%s arch early init", Name)
}

func (cortexmArch) Init() {
	arm.DisableInterrupts()
	irqc.clear()
	startCycleCounter()
	mpuInit()
	domain = KernelThreadMemoryConfig
	klog.Printf("%s arch init", Name)
}

func (cortexmArch) EnableInterrupts() { arm.EnableInterrupts(0) }

func (cortexmArch) DisableInterrupts() { arm.DisableInterrupts() }

// InterruptsEnabled reads PRIMASK: DisableInterrupts returns the previous
// value, which is written straight back.
func (cortexmArch) InterruptsEnabled() bool {
	mask := arm.DisableInterrupts()
	arm.EnableInterrupts(mask)
	return mask&1 == 0
}

func (cortexmArch) controller() *irqController { return irqc }

func (cortexmArch) activate(mc *MemoryConfig) {
	if mc == domain {
		return
	}
	mpuApply(mc)
	domain = mc
}

func (cortexmArch) active() *MemoryConfig { return domain }
