//go:build !tinygo

package arch

import (
	"sync/atomic"

	"kestrel/internal/klog"
)

// Name identifies the backend.
const Name = "host"

const (
	// MinStackSize is the smallest stack a frame may be initialised with.
	MinStackSize = 1024

	// MaxMemoryRegions bounds the regions of one MemoryConfig.
	MaxMemoryRegions = 16

	memoryRegionAlign = 1
)

// hostCore is the state of the single simulated core.
type hostCore struct {
	irqEnabled atomic.Bool
	irq        *irqController
	domain     atomic.Pointer[MemoryConfig]
}

func newHostCore() *hostCore {
	c := &hostCore{irq: newIRQController()}
	c.domain.Store(KernelThreadMemoryConfig)
	return c
}

var core atomic.Pointer[hostCore]

func init() {
	core.Store(newHostCore())
}

type hostArch struct{}

var backend hostArch

var _ Backend = hostArch{}

func (hostArch) EarlyInit() {
	klog.Printf("%s arch early init", Name)
}

func (hostArch) Init() {
	c := core.Load()
	c.irqEnabled.Store(false)
	c.irq.clear()
	c.domain.Store(KernelThreadMemoryConfig)
	klog.Printf("%s arch init", Name)
}

func (hostArch) EnableInterrupts()       { core.Load().irqEnabled.Store(true) }
func (hostArch) DisableInterrupts()      { core.Load().irqEnabled.Store(false) }
func (hostArch) InterruptsEnabled() bool { return core.Load().irqEnabled.Load() }

func (hostArch) controller() *irqController { return core.Load().irq }

func (hostArch) activate(mc *MemoryConfig) { core.Load().domain.Store(mc) }
func (hostArch) active() *MemoryConfig     { return core.Load().domain.Load() }

// Reset power-cycles the simulated core: bring-up starts over, interrupts
// are masked with nothing pending, and the halt latch is cleared. Contexts
// parked before the reset are never resumed.
func Reset() {
	core.Store(newHostCore())
	stage.Store(uint32(StageReset))
	haltActive.Store(false)
}
