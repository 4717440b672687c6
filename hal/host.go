//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultHz is the host tick rate when none is configured.
const DefaultHz = 1000

type hostHAL struct {
	logger *hostLogger
	t      *hostTime
}

// New returns a host HAL logging to stdout and ticking at DefaultHz.
func New() HAL {
	return newHostHAL(os.Stdout, DefaultHz)
}

func newHostHAL(w io.Writer, hz int) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{w: w},
		t:      newHostTime(time.Second / time.Duration(hz)),
	}
}

func (h *hostHAL) Logger() Logger { return h.logger }
func (h *hostHAL) Time() Time     { return h.t }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
