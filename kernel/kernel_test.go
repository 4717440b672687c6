//go:build !tinygo

package kernel

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kestrel/arch"
	"kestrel/internal/klog"
)

// newKernel returns a kernel whose idle thread parks for good once every
// spawned thread has exited. boot returns a channel closed at that point and
// waits for it before the test ends, so no kernel goroutine outlives the
// arch core it was started on.
func newKernel(t *testing.T, cfg Config) (*Kernel, func() <-chan struct{}) {
	t.Helper()
	arch.Reset()
	done := make(chan struct{})
	cfg.Idle = func(live int) {
		if live == 0 {
			close(done)
			select {}
		}
	}
	k := New(cfg)
	boot := func() <-chan struct{} {
		go k.Main()
		t.Cleanup(func() {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Error("kernel did not go idle")
			}
		})
		return done
	}
	return k, boot
}

// pumpTicks raises the timer line every period until the test ends.
func pumpTicks(t *testing.T, period time.Duration) {
	t.Helper()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				arch.RaiseIRQ(arch.IRQTimer)
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		wg.Wait()
	})
}

func TestThreadsInterleaveOnYield(t *testing.T) {
	k, boot := newKernel(t, Config{})
	events := make(chan string, 16)

	worker := func(ctx *Context) {
		for i := 0; i < 3; i++ {
			events <- ctx.Name()
			ctx.Yield()
		}
	}
	if _, err := k.Spawn("a", worker, 0, 0); err != nil {
		t.Fatalf("Spawn a: %v", err)
	}
	if _, err := k.Spawn("b", worker, 0, 0); err != nil {
		t.Fatalf("Spawn b: %v", err)
	}
	boot()

	var got strings.Builder
	for i := 0; i < 6; i++ {
		select {
		case ev := <-events:
			got.WriteString(ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout after %q", got.String())
		}
	}
	if got.String() != "ababab" {
		t.Fatalf("unexpected interleaving %q", got.String())
	}
}

func TestThreadContext(t *testing.T) {
	k, boot := newKernel(t, Config{})

	type seen struct {
		id      ThreadID
		name    string
		arg     uintptr
		current ThreadID
		enabled bool
		domain  *arch.MemoryConfig
	}
	ch := make(chan seen, 1)
	id, err := k.Spawn("worker", func(ctx *Context) {
		ch <- seen{
			id:      ctx.ID(),
			name:    ctx.Name(),
			arg:     ctx.Arg(),
			current: ctx.Kernel().CurrentThread(),
			enabled: arch.InterruptsEnabled(),
			domain:  arch.ActiveMemoryConfig(),
		}
	}, 42, 0)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	boot()

	select {
	case s := <-ch:
		if s.id != id || s.current != id {
			t.Fatalf("expected thread %d, got id %d current %d", id, s.id, s.current)
		}
		if s.name != "worker" || s.arg != 42 {
			t.Fatalf("unexpected name %q arg %d", s.name, s.arg)
		}
		if !s.enabled {
			t.Fatal("thread bodies should run with interrupts enabled")
		}
		if s.domain != arch.KernelThreadMemoryConfig {
			t.Fatal("kernel thread outside the kernel domain")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("thread did not run")
	}
}

func TestSleepIsWokenByTicks(t *testing.T) {
	k, boot := newKernel(t, Config{})
	const nap = 5 * time.Millisecond

	done := make(chan time.Duration, 1)
	if _, err := k.Spawn("sleeper", func(ctx *Context) {
		start := ctx.Now()
		ctx.Sleep(nap)
		done <- ctx.Now().Sub(start)
	}, 0, 0); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	boot()
	pumpTicks(t, time.Millisecond)

	select {
	case d := <-done:
		if d < nap {
			t.Fatalf("slept %v, expected at least %v", d, nap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sleeper never woke")
	}
}

func TestQuantumPreemptsBusyThread(t *testing.T) {
	k, boot := newKernel(t, Config{Quantum: 2})

	var preempted atomic.Bool
	if _, err := k.Spawn("spin", func(ctx *Context) {
		for !preempted.Load() {
			// Each unmask is an interrupt delivery point.
			arch.DisableInterrupts()
			arch.EnableInterrupts()
		}
	}, 0, 0); err != nil {
		t.Fatalf("Spawn spin: %v", err)
	}
	ran := make(chan uint64, 1)
	if _, err := k.Spawn("other", func(ctx *Context) {
		preempted.Store(true)
		ran <- ctx.Ticks()
	}, 0, 0); err != nil {
		t.Fatalf("Spawn other: %v", err)
	}
	boot()
	pumpTicks(t, time.Millisecond)

	select {
	case ticks := <-ran:
		if ticks < 2 {
			t.Fatalf("other ran after %d ticks, before the quantum expired", ticks)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("busy thread was never preempted")
	}
}

func TestExitedSlotIsReused(t *testing.T) {
	k, boot := newKernel(t, Config{})

	type result struct {
		first, second ThreadID
		err           error
	}
	ch := make(chan result, 1)
	if _, err := k.Spawn("parent", func(ctx *Context) {
		var exited atomic.Bool
		first, err := ctx.Kernel().Spawn("child", func(c *Context) {
			exited.Store(true)
			c.Exit()
			t.Error("Exit returned")
		}, 0, 0)
		if err != nil {
			ch <- result{err: err}
			return
		}
		for !exited.Load() {
			ctx.Yield()
		}
		// One more round so the child has switched out for good.
		ctx.Yield()
		second, err := ctx.Kernel().Spawn("second", func(*Context) {}, 0, 0)
		ch <- result{first: first, second: second, err: err}
	}, 0, 0); err != nil {
		t.Fatalf("Spawn parent: %v", err)
	}
	boot()

	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("Spawn: %v", r.err)
		}
		if r.second != r.first {
			t.Fatalf("expected slot %d reused, got %d", r.first, r.second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("parent did not finish")
	}
}

func TestExitSkipsDeferredCalls(t *testing.T) {
	k, boot := newKernel(t, Config{})

	var deferRan atomic.Bool
	if _, err := k.Spawn("a", func(ctx *Context) {
		defer func() {
			deferRan.Store(true)
			ctx.Yield()
		}()
		ctx.Exit()
	}, 0, 0); err != nil {
		t.Fatalf("Spawn a: %v", err)
	}

	overlap := make(chan int, 1)
	if _, err := k.Spawn("b", func(ctx *Context) {
		n := 0
		for i := 0; i < 20; i++ {
			if ctx.Kernel().CurrentThread() != ctx.ID() {
				n++
			}
			ctx.Yield()
			time.Sleep(time.Millisecond)
		}
		overlap <- n
	}, 0, 0); err != nil {
		t.Fatalf("Spawn b: %v", err)
	}
	idle := boot()

	select {
	case n := <-overlap:
		if n != 0 {
			t.Fatalf("b saw another current thread %d times", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("b did not finish")
	}
	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatal("kernel did not go idle")
	}
	if deferRan.Load() {
		t.Fatal("deferred call ran in an exited thread")
	}
}

func TestSpawnErrors(t *testing.T) {
	arch.Reset()

	t.Run("stack too small", func(t *testing.T) {
		k := New(Config{})
		_, err := k.Spawn("tiny", func(*Context) {}, 0, 64)
		if !errors.Is(err, ErrStackTooSmall) {
			t.Fatalf("expected ErrStackTooSmall, got %v", err)
		}
	})

	t.Run("nil body", func(t *testing.T) {
		k := New(Config{})
		if _, err := k.Spawn("nil", nil, 0, 0); err == nil {
			t.Fatal("expected error for nil body")
		}
	})

	t.Run("table full", func(t *testing.T) {
		k := New(Config{})
		for i := 1; i < maxThreads; i++ {
			if _, err := k.Spawn("t", func(*Context) {}, 0, 0); err != nil {
				t.Fatalf("Spawn %d: %v", i, err)
			}
		}
		_, err := k.Spawn("overflow", func(*Context) {}, 0, 0)
		if !errors.Is(err, ErrTooManyThreads) {
			t.Fatalf("expected ErrTooManyThreads, got %v", err)
		}
	})
}

func TestDefaults(t *testing.T) {
	k := New(Config{})
	if k.cfg.Quantum != DefaultQuantum {
		t.Fatalf("expected quantum %d, got %d", DefaultQuantum, k.cfg.Quantum)
	}
	if k.Name(idleID) != "idle" || k.Name(maxThreads) != "" {
		t.Fatal("unexpected thread names")
	}
}

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *lineLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func TestTraceLogsSwitches(t *testing.T) {
	out := &lineLog{}
	klog.SetOutput(out)
	t.Cleanup(func() { klog.SetOutput(nil) })

	k, boot := newKernel(t, Config{Trace: true})
	done := make(chan struct{})
	if _, err := k.Spawn("a", func(ctx *Context) {
		ctx.Yield()
	}, 0, 0); err != nil {
		t.Fatalf("Spawn a: %v", err)
	}
	if _, err := k.Spawn("b", func(ctx *Context) {
		close(done)
	}, 0, 0); err != nil {
		t.Fatalf("Spawn b: %v", err)
	}
	boot()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("b did not run")
	}
	if !strings.Contains(out.String(), "sched: a (ready) -> b") {
		t.Fatalf("expected switch trace, got:\n%s", out.String())
	}
}
