//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the host runner.
type HeadlessConfig struct {
	// Hz is the tick rate. Zero selects DefaultHz.
	Hz int

	// Ticks stops the run after this many ticks. Zero runs until boot
	// returns or ctx is cancelled.
	Ticks uint64

	// TTY logs to the controlling terminal instead of stdout.
	TTY bool
}

// RunHeadless builds the host HAL and runs boot next to the tick source.
//
// boot runs for the life of the system. It must return when its context is
// cancelled; a nil return ends the run cleanly, an error is returned to the
// caller. The run also ends once the tick budget is spent.
func RunHeadless(ctx context.Context, cfg HeadlessConfig, boot func(ctx context.Context, h HAL) error) error {
	if cfg.Hz == 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.Hz < 0 || time.Second/time.Duration(cfg.Hz) <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	w, closeConsole, err := openConsole(cfg.TTY)
	if err != nil {
		return err
	}
	defer closeConsole()
	return runHost(ctx, newHostHAL(w, cfg.Hz), cfg.Ticks, boot)
}

func runHost(ctx context.Context, h *hostHAL, budget uint64, boot func(ctx context.Context, h HAL) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return boot(gctx, h)
	})
	g.Go(func() error {
		t := time.NewTicker(h.t.period)
		defer t.Stop()

		var total uint64
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-t.C:
				total += h.t.step(now)
				if budget > 0 && total >= budget {
					cancel()
					return nil
				}
			}
		}
	})
	return g.Wait()
}
