//go:build !tinygo

package arch

import (
	"runtime"
	"testing"
)

func bootForTest(t *testing.T) {
	t.Helper()
	Reset()
	EarlyInit()
	Init()
}

func testStack(t *testing.T) Stack {
	t.Helper()
	buf := make([]byte, 8192)
	t.Cleanup(func() { runtime.KeepAlive(buf) })
	return StackFromBytes(buf)
}

// expectFatal runs fn and returns the halt it raised.
func expectFatal(t *testing.T, fn func()) (info *HaltInfo) {
	t.Helper()
	defer func() {
		v := recover()
		if v == nil {
			t.Fatal("expected fatal halt")
		}
		h, ok := v.(*HaltInfo)
		if !ok {
			panic(v)
		}
		info = h
	}()
	fn()
	return nil
}
