//go:build tinygo && baremetal

package hal

import (
	"io"
	"machine"
	"time"
)

// TickPeriod is the board tick period.
const TickPeriod = time.Millisecond

type tinyGoHAL struct {
	logger *uartLogger
	t      *tinyGoTime
}

// New returns the board HAL. The console is the target's default serial
// port as configured by the TinyGo runtime.
func New() HAL {
	return &tinyGoHAL{
		logger: &uartLogger{uart: machine.Serial},
		t:      newTinyGoTime(TickPeriod),
	}
}

func (h *tinyGoHAL) Logger() Logger { return h.logger }
func (h *tinyGoHAL) Time() Time     { return h.t }

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime(period time.Duration) *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

type uartLogger struct {
	uart io.ByteWriter
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}
