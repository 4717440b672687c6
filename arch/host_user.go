//go:build !tinygo && userspace

package arch

import "sync"

var userImages sync.Map // uintptr -> func(uintptr)

// MapUserImage makes fn the code found at entry for isolated threads. The
// host cannot branch to raw addresses, so user programs are Go functions
// registered at the addresses a loader would have placed them.
func MapUserImage(entry uintptr, fn func(arg uintptr)) {
	if fn == nil {
		userImages.Delete(entry)
		return
	}
	userImages.Store(entry, fn)
}

func (hostArch) userImage(entry uintptr) (func(arg uintptr), bool) {
	v, ok := userImages.Load(entry)
	if !ok {
		return nil, false
	}
	fn, ok := v.(func(uintptr))
	return fn, ok
}
