// Package hal is the board edge of the kernel: the console it logs to and
// the periodic tick that drives the timer interrupt.
package hal

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Time provides a base tick stream.
//
// The tick period is platform-defined; the kernel turns each tick into a
// timer interrupt.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the kernel and the outside
// world.
type HAL interface {
	Logger() Logger
	Time() Time
}
