// Package bootargs parses the kernel command line.
//
// The command line is a shell-quoted list of words. A word is either a bare
// flag ("trace") or key=value ("threads=4", banner="hello world").
package bootargs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

var (
	ErrUnknownKey = errors.New("bootargs: unknown key")
	ErrBadValue   = errors.New("bootargs: bad value")
)

// MaxThreads bounds threads= so the demo fits the kernel's thread table.
const MaxThreads = 15

// Args is the parsed command line.
type Args struct {
	Threads    int
	Quantum    uint64
	Iterations int
	Sleep      time.Duration
	Trace      bool
	Banner     string
}

// Default returns the arguments used for an empty command line.
func Default() Args {
	return Args{
		Threads:    3,
		Iterations: 10,
		Sleep:      20 * time.Millisecond,
	}
}

// Parse splits cmdline and applies each word on top of Default.
func Parse(cmdline string) (Args, error) {
	a := Default()
	words, err := shlex.Split(cmdline)
	if err != nil {
		return a, fmt.Errorf("bootargs: %w", err)
	}
	for _, w := range words {
		key, val, hasVal := strings.Cut(w, "=")
		if err := a.set(key, val, hasVal); err != nil {
			return a, err
		}
	}
	return a, nil
}

func (a *Args) set(key, val string, hasVal bool) error {
	switch key {
	case "trace":
		if !hasVal {
			a.Trace = true
			return nil
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return badValue(key, val)
		}
		a.Trace = b
	case "threads":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > MaxThreads {
			return badValue(key, val)
		}
		a.Threads = n
	case "quantum":
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return badValue(key, val)
		}
		a.Quantum = n
	case "iterations":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return badValue(key, val)
		}
		a.Iterations = n
	case "sleep":
		d, err := time.ParseDuration(val)
		if err != nil || d < 0 {
			return badValue(key, val)
		}
		a.Sleep = d
	case "banner":
		a.Banner = val
	default:
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return nil
}

func badValue(key, val string) error {
	return fmt.Errorf("%w for %s: %q", ErrBadValue, key, val)
}

// String renders a in command line form.
func (a Args) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "threads=%d quantum=%d iterations=%d sleep=%s", a.Threads, a.Quantum, a.Iterations, a.Sleep)
	if a.Trace {
		b.WriteString(" trace")
	}
	if a.Banner != "" {
		fmt.Fprintf(&b, " banner=%q", a.Banner)
	}
	return b.String()
}
