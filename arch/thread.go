package arch

import "sync/atomic"

type threadPhase uint32

const (
	phaseUnrunnable threadPhase = iota
	phaseRunnable
	phaseRunning
	phaseSuspended
)

func (p threadPhase) String() string {
	switch p {
	case phaseUnrunnable:
		return "unrunnable"
	case phaseRunnable:
		return "runnable"
	case phaseRunning:
		return "running"
	case phaseSuspended:
		return "suspended"
	default:
		return "corrupt"
	}
}

// frame is the processor state saved when a context is suspended.
type frame struct {
	irqEnabled bool
	irqDepth   int32
}

// ThreadState is everything needed to resume one thread.
//
// The zero value is not yet runnable. A ThreadState is owned by exactly one
// thread control block and must not be copied once initialised.
//
// Every context runs on its own goroutine; a suspended context is parked on
// its resume slot and the scheduler guard travels through that slot. On the
// host this is the simulator, under TinyGo the goroutine switch is the real
// stack swap.
type ThreadState struct {
	_ [0]func()

	phase        atomic.Uint32
	stack        Stack
	memoryConfig *MemoryConfig
	start        func()
	resume       chan any
	handoff      any
	frame        frame
}

// NewThreadState returns a state that is not yet runnable.
func NewThreadState() *ThreadState {
	return &ThreadState{}
}

func (s *ThreadState) load() threadPhase { return threadPhase(s.phase.Load()) }

// Running reports whether s is the context executing on the core.
func (s *ThreadState) Running() bool { return s.load() == phaseRunning }

// Stack returns the stack recorded at initialisation.
func (s *ThreadState) Stack() Stack { return s.stack }

// MemoryConfig returns the protection domain s runs in.
func (s *ThreadState) MemoryConfig() *MemoryConfig { return s.memoryConfig }

func (s *ThreadState) prepare(op string, stack Stack, mc *MemoryConfig) {
	if p := s.load(); p != phaseUnrunnable {
		Fatal("arch: %s on %s thread state", op, p)
	}
	if err := stack.validate(); err != nil {
		Fatal("arch: %s: %v", op, err)
	}
	if mc == nil {
		Fatal("arch: %s: nil memory config", op)
	}
	s.stack = stack
	s.memoryConfig = mc
	s.handoff = nil
	s.frame = frame{}
	s.resume = make(chan any, 1)
}

// InitializeKernelFrame prepares s so that the next ContextSwitch into it
// runs entry(args[0], args[1]) on stack with mc active and interrupts
// masked. It does not switch. The entry must not return; a kernel thread
// leaves through ExitSwitch.
func (s *ThreadState) InitializeKernelFrame(stack Stack, mc *MemoryConfig, entry func(a0, a1 uintptr), args [2]uintptr) {
	if entry == nil {
		Fatal("arch: kernel frame without entry")
	}
	s.prepare("kernel frame", stack, mc)
	s.start = func() { entry(args[0], args[1]) }
	s.phase.Store(uint32(phaseRunnable))
	go s.run(s.resume)
}

// InitializeCurrent records that s describes the context that is already
// executing, typically the bootstrap context before the first switch.
func (s *ThreadState) InitializeCurrent(stack Stack, mc *MemoryConfig) {
	s.prepare("current frame", stack, mc)
	s.phase.Store(uint32(phaseRunning))
	backend.activate(mc)
}

func (s *ThreadState) run(resume <-chan any) {
	s.handoff = <-resume
	s.restore()
	s.start()
	Fatal("arch: thread entry returned")
}

func (s *ThreadState) restore() {
	backend.activate(s.memoryConfig)
	backend.controller().depth.Store(s.frame.irqDepth)
	if s.frame.irqEnabled {
		backend.EnableInterrupts()
	} else {
		backend.DisableInterrupts()
	}
}

// TakeHandoff returns the guard delivered by the first switch into a freshly
// initialised s. The new context calls it once, before anything else.
func TakeHandoff[G any](s *ThreadState) G {
	v := s.handoff
	s.handoff = nil
	g, ok := v.(G)
	if !ok {
		var want G
		Fatal("arch: thread was handed %T, expected %T", v, want)
	}
	return g
}

// ContextSwitch suspends the running context old and resumes new.
//
// The caller must hold the scheduler lock and proves it by passing guard;
// ownership of the guard moves to the context being resumed. The call
// returns, on old's own stack, once a later switch resumes old, with the
// guard that switch delivered. Interrupts stay masked for the whole swap.
//
// Only the scheduler may call this. Passing a state that is not running as
// old, or one that was never initialised as new, halts the system. G should
// be pointer-shaped so the hand-off does not allocate.
func ContextSwitch[G any](guard G, oldState, newState *ThreadState) G {
	if oldState == newState {
		return guard
	}
	v := swap(guard, oldState, newState, phaseSuspended)
	g, ok := v.(G)
	if !ok {
		Fatal("arch: resumed with %T, expected %T", v, guard)
	}
	return g
}

// ExitSwitch hands guard to new and terminates the calling context, which
// must be old. old becomes unrunnable and may be initialised again.
//
// The calling context never executes again: it is parked for good after the
// hand-off, so deferred calls on its stack do not run.
func ExitSwitch[G any](guard G, oldState, newState *ThreadState) {
	if oldState == newState {
		Fatal("arch: thread exiting into itself")
	}
	swap(guard, oldState, newState, phaseUnrunnable)
	select {}
}

func swap(guard any, oldState, newState *ThreadState, leave threadPhase) any {
	if s := BootStage(); s != StageReady {
		Fatal("arch: context switch in stage %s", s)
	}
	enabled := backend.InterruptsEnabled()
	backend.DisableInterrupts()

	if !oldState.phase.CompareAndSwap(uint32(phaseRunning), uint32(leave)) {
		Fatal("arch: switching away from %s thread state", oldState.load())
	}
	oldState.frame = frame{
		irqEnabled: enabled,
		irqDepth:   backend.controller().depth.Load(),
	}
	// Keep a local copy: once old is unrunnable it may be re-initialised by
	// the context we hand off to.
	resume := oldState.resume

	if !newState.phase.CompareAndSwap(uint32(phaseSuspended), uint32(phaseRunning)) &&
		!newState.phase.CompareAndSwap(uint32(phaseRunnable), uint32(phaseRunning)) {
		Fatal("arch: switching to %s thread state", newState.load())
	}
	newState.resume <- guard

	if leave == phaseUnrunnable {
		return nil
	}
	v := <-resume
	oldState.restore()
	return v
}
