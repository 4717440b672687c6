//go:build !tinygo

package arch

import "runtime/debug"

func captureStack() []byte {
	return debug.Stack()
}
