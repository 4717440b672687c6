//go:build tinygo && cortexm

package main

import (
	"kestrel/arch"
	"kestrel/hal"
	"kestrel/internal/bootargs"
	"kestrel/internal/klog"
	"kestrel/target"
	"kestrel/target/demo"
)

// cmdline is the kernel command line, set with -ldflags "-X main.cmdline=...".
var cmdline string

func main() {
	h := hal.New()
	klog.SetOutput(h.Logger())

	args, err := bootargs.Parse(cmdline)
	if err != nil {
		klog.Printf("cmdline: %v, using defaults", err)
		args = bootargs.Default()
	}
	target.Declare(demo.New(args))

	go func() {
		for range h.Time().Ticks() {
			arch.RaiseIRQ(arch.IRQTimer)
		}
	}()
	target.Run()
}
