//go:build userspace

package arch

import (
	"fmt"
	"unsafe"
)

// userBackend is implemented by backends that can run isolated threads.
// Building with the userspace tag for a backend without it fails here.
type userBackend interface {
	userImage(entry uintptr) (func(arg uintptr), bool)
}

var _ userBackend = backend

const wordSize = unsafe.Sizeof(uintptr(0))

// InitializeUserFrame prepares s to start executing at entryPoint with
// initialSP, in the untrusted domain mc, passing arg. kernelStack is the
// stack the thread uses while in the kernel.
//
// Every failure wraps ErrAccessDenied. A malformed kernel stack or stack
// pointer additionally wraps ErrInvalidArgument.
//
// The first switch into s leaves the delivered guard for the kernel's trap
// path to collect with TakeHandoff.
func (s *ThreadState) InitializeUserFrame(kernelStack Stack, mc *MemoryConfig, initialSP, entryPoint, arg uintptr) error {
	if err := kernelStack.validate(); err != nil {
		return fmt.Errorf("%w: user frame: kernel stack: %w", ErrAccessDenied, err)
	}
	if mc == nil || mc.Trusted() {
		return fmt.Errorf("%w: user frame needs an untrusted memory config", ErrAccessDenied)
	}
	if initialSP%StackAlign != 0 || initialSP < wordSize {
		return fmt.Errorf("%w: %w: user stack pointer %#x", ErrAccessDenied, ErrInvalidArgument, initialSP)
	}
	if !mc.RangeHasAccess(ReadWriteData, initialSP-wordSize, initialSP) {
		return fmt.Errorf("%w: user stack at %#x not writable in %s", ErrAccessDenied, initialSP, mc.Name())
	}
	if !mc.RangeHasAccess(ReadOnlyExecutable, entryPoint, entryPoint+1) {
		return fmt.Errorf("%w: entry point %#x not executable in %s", ErrAccessDenied, entryPoint, mc.Name())
	}
	fn, ok := backend.userImage(entryPoint)
	if !ok {
		return fmt.Errorf("%w: no image mapped at %#x", ErrAccessDenied, entryPoint)
	}

	s.prepare("user frame", kernelStack, mc)
	s.start = func() { fn(arg) }
	s.phase.Store(uint32(phaseRunnable))
	go s.run(s.resume)
	return nil
}
