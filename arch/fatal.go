package arch

import (
	"fmt"
	"sync/atomic"

	"kestrel/internal/klog"
)

// HaltInfo describes a fatal kernel condition.
type HaltInfo struct {
	Reason string
	Stack  []byte
}

func (h *HaltInfo) Error() string { return h.Reason }

var (
	haltActive  atomic.Bool
	haltHandler atomic.Value // func(*HaltInfo)
)

// Halted reports whether the system has hit a fatal condition.
func Halted() bool {
	return haltActive.Load()
}

// SetHaltHandler installs a process-wide halt handler.
//
// The handler is invoked at most once, on the first fatal condition. It may
// park forever; if it returns, Fatal panics.
func SetHaltHandler(fn func(*HaltInfo)) {
	haltHandler.Store(fn)
}

// Fatal halts the system. It never returns and must not be recovered by
// kernel code: it is reserved for conditions the kernel cannot run past
// (broken bring-up order, corrupted thread state, misuse of a lock).
func Fatal(format string, args ...any) {
	info := &HaltInfo{Reason: fmt.Sprintf(format, args...)}
	if haltActive.CompareAndSwap(false, true) {
		info.Stack = captureStack()
		klog.Printf("FATAL: %s", info.Reason)
		if v := haltHandler.Load(); v != nil {
			if fn, ok := v.(func(*HaltInfo)); ok && fn != nil {
				fn(info)
			}
		}
	}
	panic(info)
}
