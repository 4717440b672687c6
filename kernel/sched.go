package kernel

import (
	"time"

	"kestrel/arch"
	"kestrel/internal/klog"
	"kestrel/ksync"
)

// pick returns the next thread to run: the first ready thread after the
// current one, else the current thread if it can keep running, else idle.
func (k *Kernel) pick(st *SchedulerState) ThreadID {
	for i := 1; i <= maxThreads; i++ {
		id := ThreadID((int(st.current) + i) % maxThreads)
		if id == idleID {
			continue
		}
		if st.run[id] == stateReady {
			return id
		}
	}
	if st.current != idleID && st.run[st.current] == stateRunning {
		return st.current
	}
	return idleID
}

// handover marks next as running and returns the thread being left.
func (k *Kernel) handover(st *SchedulerState, next ThreadID) *Thread {
	prev := st.current
	if st.run[prev] == stateRunning {
		st.run[prev] = stateReady
	}
	if k.cfg.Trace {
		klog.Printf("sched: %s (%s) -> %s", k.threads[prev].name, st.run[prev], k.threads[next].name)
	}
	st.run[next] = stateRunning
	st.current = next
	st.slice = 0
	return &k.threads[prev]
}

// reschedule switches to the next thread if it is not the current one. The
// guard returned is the one handed back when this thread runs again.
func (k *Kernel) reschedule(g ksync.Guard[SchedulerState]) ksync.Guard[SchedulerState] {
	st := g.Value()
	next := k.pick(st)
	if next == st.current {
		return g
	}
	prev := k.handover(st, next)
	return arch.ContextSwitch(g, &prev.state, &k.threads[next].state)
}

// Yield gives up the rest of the current slice.
func (k *Kernel) Yield() {
	g, enabled := k.lock()
	g = k.reschedule(g)
	unlock(&g, enabled)
}

// Sleep blocks the current thread for at least d. The idle thread cannot
// sleep.
func (k *Kernel) Sleep(d time.Duration) {
	if d <= 0 {
		k.Yield()
		return
	}
	g, enabled := k.lock()
	st := g.Value()
	if st.current == idleID {
		arch.Fatal("kernel: idle thread sleeping")
	}
	st.wake[st.current] = arch.Now().Add(d)
	st.run[st.current] = stateSleeping
	g = k.reschedule(g)
	unlock(&g, enabled)
}

// CurrentThread returns the ID of the running thread.
func (k *Kernel) CurrentThread() ThreadID {
	g, enabled := k.lock()
	defer unlock(&g, enabled)
	return g.Value().current
}

func (k *Kernel) exit() {
	g, _ := k.lock()
	st := g.Value()
	if st.current == idleID {
		arch.Fatal("kernel: idle thread exiting")
	}
	st.run[st.current] = stateExited
	next := k.pick(st)
	prev := k.handover(st, next)
	arch.ExitSwitch(g, &prev.state, &k.threads[next].state)
}

// tick is the timer interrupt handler. Interrupts are already masked.
func (k *Kernel) tick() {
	g := k.sched.Lock()
	st := g.Value()
	st.ticks++

	now := arch.Now()
	for i := range st.run {
		if st.run[i] == stateSleeping && !now.Before(st.wake[i]) {
			st.run[i] = stateReady
		}
	}

	st.slice++
	switch {
	case !st.started:
	case st.current == idleID && k.pick(st) != idleID:
		g = k.reschedule(g)
	case st.current != idleID && st.slice >= k.cfg.Quantum:
		g = k.reschedule(g)
	}
	g.Unlock()
}
