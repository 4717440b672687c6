package arch

import (
	"math/bits"
	"sync/atomic"
)

const (
	// MaxIRQs is the number of interrupt lines.
	MaxIRQs = 32

	// IRQTimer is the periodic scheduler tick.
	IRQTimer = 0
)

// irqController latches raised lines and delivers them on the core when
// interrupts are unmasked.
type irqController struct {
	pending  atomic.Uint32
	depth    atomic.Int32
	handlers [MaxIRQs]atomic.Pointer[func()]
	wake     chan struct{}
}

func newIRQController() *irqController {
	return &irqController{wake: make(chan struct{}, 1)}
}

func (c *irqController) raise(line uint) {
	for {
		p := c.pending.Load()
		if c.pending.CompareAndSwap(p, p|1<<line) {
			break
		}
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *irqController) clear() {
	c.pending.Store(0)
	c.depth.Store(0)
	for i := range c.handlers {
		c.handlers[i].Store(nil)
	}
}

// dispatch runs pending handlers lowest line first. Handlers run masked and
// never nest.
func (c *irqController) dispatch() {
	for backend.InterruptsEnabled() && c.depth.Load() == 0 {
		p := c.pending.Load()
		if p == 0 {
			return
		}
		line := uint(bits.TrailingZeros32(p))
		if !c.pending.CompareAndSwap(p, p&^(1<<line)) {
			continue
		}
		h := c.handlers[line].Load()
		if h == nil {
			continue
		}

		backend.DisableInterrupts()
		c.depth.Add(1)
		(*h)()
		c.depth.Add(-1)
		backend.EnableInterrupts()
	}
}

// SetIRQHandler installs fn for line. A nil fn removes the handler; raised
// lines without a handler are dropped at dispatch.
func SetIRQHandler(line uint, fn func()) {
	if line >= MaxIRQs {
		Fatal("arch: irq %d out of range", line)
	}
	c := backend.controller()
	if fn == nil {
		c.handlers[line].Store(nil)
		return
	}
	c.handlers[line].Store(&fn)
}

// RaiseIRQ marks line pending. It may be called from any goroutine; it
// models a device asserting the line.
func RaiseIRQ(line uint) {
	if line >= MaxIRQs {
		Fatal("arch: irq %d out of range", line)
	}
	backend.controller().raise(line)
}

// InInterrupt reports whether the calling core is running a handler.
func InInterrupt() bool {
	return backend.controller().depth.Load() > 0
}

// WaitForInterrupt idles until a line is pending, then dispatches it if
// interrupts are unmasked. It may return spuriously.
func WaitForInterrupt() {
	c := backend.controller()
	if c.pending.Load() == 0 {
		<-c.wake
	}
	c.dispatch()
}
