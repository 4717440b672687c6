// Package klog writes kernel log lines to the board console.
package klog

import (
	"fmt"
	"sync/atomic"
)

// Writer is the console a log line ends up on. hal.Logger satisfies it.
type Writer interface {
	WriteLineString(s string)
}

var out atomic.Value // writerBox

type writerBox struct{ w Writer }

// SetOutput attaches the console. A nil writer detaches it and lines are
// dropped until another one is attached.
func SetOutput(w Writer) {
	out.Store(writerBox{w: w})
}

func output() Writer {
	if v, ok := out.Load().(writerBox); ok {
		return v.w
	}
	return nil
}

// Println writes one line.
func Println(s string) {
	if w := output(); w != nil {
		w.WriteLineString(s)
	}
}

// Printf formats and writes one line.
func Printf(format string, args ...any) {
	w := output()
	if w == nil {
		return
	}
	w.WriteLineString(fmt.Sprintf(format, args...))
}
