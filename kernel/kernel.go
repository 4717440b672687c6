// Package kernel is the scheduler that drives the architecture layer: a
// fixed thread table, round-robin selection, tick-driven sleep and
// preemption.
package kernel

import (
	"errors"
	"fmt"

	"kestrel/arch"
	"kestrel/internal/buildinfo"
	"kestrel/internal/klog"
	"kestrel/ksync"
	"kestrel/ktime"
)

const (
	maxThreads = 16
	idleID     = ThreadID(0)

	// DefaultStackSize is used by Spawn when stackSize is zero.
	DefaultStackSize = 16 * 1024

	// DefaultQuantum is the number of ticks a thread runs before it is
	// preempted.
	DefaultQuantum = 10
)

var (
	ErrTooManyThreads = errors.New("kernel: thread table full")
	ErrStackTooSmall  = errors.New("kernel: stack too small")
)

// ThreadID indexes the thread table. ID 0 is the idle thread.
type ThreadID uint8

// ThreadFunc is the body of a kernel thread. Returning from it exits the
// thread.
type ThreadFunc func(ctx *Context)

type runState uint8

const (
	stateFree runState = iota
	stateReady
	stateRunning
	stateSleeping
	stateExited
)

func (s runState) String() string {
	switch s {
	case stateFree:
		return "free"
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateSleeping:
		return "sleeping"
	case stateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Thread is a thread control block. Storage is owned by the Kernel; the
// scheduler refers to threads by ThreadID.
type Thread struct {
	id    ThreadID
	name  string
	state arch.ThreadState
	stack []byte
	fn    ThreadFunc
}

// SchedulerState is everything guarded by the scheduler lock.
type SchedulerState struct {
	run     [maxThreads]runState
	wake    [maxThreads]ktime.Instant[arch.Clock]
	current ThreadID
	ticks   uint64
	slice   uint64
	started bool
}

// Config tunes the scheduler.
type Config struct {
	// Quantum is the number of ticks before preemption. Zero selects
	// DefaultQuantum.
	Quantum uint64

	// Trace logs every switch.
	Trace bool

	// Idle, if set, runs on the idle thread each time it is about to wait
	// for an interrupt. live is the number of threads that have not exited.
	Idle func(live int)
}

// Kernel is the scheduler plus its thread table.
type Kernel struct {
	cfg     Config
	sched   *ksync.SpinLock[SchedulerState]
	threads [maxThreads]Thread
}

// New creates a kernel. Threads may be spawned before Main.
func New(cfg Config) *Kernel {
	if cfg.Quantum == 0 {
		cfg.Quantum = DefaultQuantum
	}
	k := &Kernel{
		cfg:   cfg,
		sched: ksync.NewSpinLock(SchedulerState{}),
	}
	idle := &k.threads[idleID]
	idle.name = "idle"
	idle.stack = make([]byte, DefaultStackSize)
	return k
}

// lock takes the scheduler lock from thread context. Interrupts are masked
// first so the tick handler cannot spin on a lock its own core holds.
func (k *Kernel) lock() (ksync.Guard[SchedulerState], bool) {
	enabled := arch.InterruptsEnabled()
	arch.DisableInterrupts()
	return k.sched.Lock(), enabled
}

func unlock(g *ksync.Guard[SchedulerState], enabled bool) {
	g.Unlock()
	if enabled {
		arch.EnableInterrupts()
	}
}

// Spawn creates a ready thread running fn. arg is available through
// Context.Arg. A zero stackSize selects DefaultStackSize.
func (k *Kernel) Spawn(name string, fn ThreadFunc, arg uintptr, stackSize int) (ThreadID, error) {
	if fn == nil {
		return 0, fmt.Errorf("spawn %q: nil thread function", name)
	}
	if stackSize == 0 {
		stackSize = DefaultStackSize
	}
	if stackSize < arch.MinStackSize+arch.StackAlign {
		return 0, fmt.Errorf("spawn %q: %w: %d bytes", name, ErrStackTooSmall, stackSize)
	}
	stack := make([]byte, stackSize)

	g, enabled := k.lock()
	defer unlock(&g, enabled)

	st := g.Value()
	id := idleID
	for i := ThreadID(1); i < maxThreads; i++ {
		if st.run[i] == stateFree || st.run[i] == stateExited {
			id = i
			break
		}
	}
	if id == idleID {
		return 0, fmt.Errorf("spawn %q: %w", name, ErrTooManyThreads)
	}

	t := &k.threads[id]
	t.id = id
	t.name = name
	t.stack = stack
	t.fn = fn
	t.state.InitializeKernelFrame(arch.StackFromBytes(stack), arch.KernelThreadMemoryConfig, k.threadEntry, [2]uintptr{uintptr(id), arg})
	st.run[id] = stateReady
	return id, nil
}

// Main brings up the architecture, turns the calling context into the idle
// thread and starts scheduling. It never returns.
func (k *Kernel) Main() {
	arch.EarlyInit()
	klog.Printf("kernel %s on %s", buildinfo.Short(), arch.Name)
	arch.Init()
	arch.SetIRQHandler(arch.IRQTimer, k.tick)

	idle := &k.threads[idleID]
	g, _ := k.lock()
	st := g.Value()
	idle.state.InitializeCurrent(arch.StackFromBytes(idle.stack), arch.KernelThreadMemoryConfig)
	st.run[idleID] = stateRunning
	st.current = idleID
	st.started = true
	g = k.reschedule(g)
	unlock(&g, true)

	for {
		if k.cfg.Idle != nil {
			k.cfg.Idle(k.live())
		}
		arch.WaitForInterrupt()
		k.Yield()
	}
}

func (k *Kernel) live() int {
	g, enabled := k.lock()
	defer unlock(&g, enabled)
	n := 0
	for id, s := range g.Value().run {
		if ThreadID(id) != idleID && s != stateFree && s != stateExited {
			n++
		}
	}
	return n
}

func (k *Kernel) threadEntry(id, arg uintptr) {
	t := &k.threads[id]
	g := arch.TakeHandoff[ksync.Guard[SchedulerState]](&t.state)
	unlock(&g, true)

	t.fn(&Context{k: k, id: t.id, arg: arg})
	k.exit()
}

// Ticks returns the number of timer ticks handled.
func (k *Kernel) Ticks() uint64 {
	g, enabled := k.lock()
	defer unlock(&g, enabled)
	return g.Value().ticks
}

// Name returns the name a thread was spawned with.
func (k *Kernel) Name(id ThreadID) string {
	if int(id) >= maxThreads {
		return ""
	}
	return k.threads[id].name
}
