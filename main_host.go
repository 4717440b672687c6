//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"kestrel/arch"
	"kestrel/hal"
	"kestrel/internal/bootargs"
	"kestrel/internal/buildinfo"
	"kestrel/internal/klog"
	"kestrel/target"
	"kestrel/target/demo"
)

func main() {
	var cfg hal.HeadlessConfig
	var cmdline string
	var version bool
	flag.IntVar(&cfg.Hz, "hz", hal.DefaultHz, "Timer tick rate.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks (0 = run until the target finishes).")
	flag.BoolVar(&cfg.TTY, "tty", false, "Log to the controlling terminal instead of stdout.")
	flag.StringVar(&cmdline, "cmdline", "", `Kernel command line, e.g. "threads=3 quantum=5 sleep=20ms trace".`)
	flag.BoolVar(&version, "version", false, "Print build information and exit.")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.Describe())
		return
	}

	args, err := bootargs.Parse(cmdline)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = hal.RunHeadless(ctx, cfg, func(ctx context.Context, h hal.HAL) error {
		return boot(ctx, h, args)
	})
	if err == nil {
		return
	}
	var halt *arch.HaltInfo
	if errors.As(err, &halt) && len(halt.Stack) > 0 {
		fmt.Fprintf(os.Stderr, "%s\n\n%s", halt.Reason, halt.Stack)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

// boot wires the console and the tick source to the kernel and runs the demo
// target until it finishes, halts, or ctx ends.
func boot(ctx context.Context, h hal.HAL, args bootargs.Args) error {
	klog.SetOutput(h.Logger())

	halted := make(chan *arch.HaltInfo, 1)
	arch.SetHaltHandler(func(info *arch.HaltInfo) {
		halted <- info
		select {}
	})

	done := make(chan struct{})
	d := demo.New(args)
	d.Done = func() { close(done) }
	target.Declare(d)
	go target.Run()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case info := <-halted:
			return info
		case <-h.Time().Ticks():
			arch.RaiseIRQ(arch.IRQTimer)
		}
	}
}
