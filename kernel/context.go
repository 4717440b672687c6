package kernel

import (
	"time"

	"kestrel/arch"
	"kestrel/ktime"
)

// Context is handed to every thread body. It is only valid on the thread it
// was created for.
type Context struct {
	k   *Kernel
	id  ThreadID
	arg uintptr
}

func (c *Context) ID() ThreadID    { return c.id }
func (c *Context) Name() string    { return c.k.threads[c.id].name }
func (c *Context) Arg() uintptr    { return c.arg }
func (c *Context) Kernel() *Kernel { return c.k }

// Yield gives up the rest of the slice.
func (c *Context) Yield() { c.k.Yield() }

// Sleep blocks for at least d.
func (c *Context) Sleep(d time.Duration) { c.k.Sleep(d) }

// Exit terminates the thread. It does not return, and calls deferred by the
// thread body do not run. Return from the body instead when they must.
func (c *Context) Exit() { c.k.exit() }

// Ticks returns the number of timer ticks handled so far.
func (c *Context) Ticks() uint64 { return c.k.Ticks() }

// Now reads the architecture clock.
func (c *Context) Now() ktime.Instant[arch.Clock] { return arch.Now() }
