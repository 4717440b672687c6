//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHostLogger(t *testing.T) {
	var buf bytes.Buffer
	h := newHostHAL(&buf, DefaultHz)
	h.Logger().WriteLineString("one")
	h.Logger().WriteLineBytes([]byte("two"))
	if got := buf.String(); got != "one\ntwo\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestHostTimeCatchesUp(t *testing.T) {
	ht := newHostTime(time.Millisecond)
	start := time.Unix(100, 0)
	if n := ht.step(start); n != 1 {
		t.Fatalf("first step: expected 1 tick, got %d", n)
	}
	if n := ht.step(start.Add(500 * time.Microsecond)); n != 0 {
		t.Fatalf("half period: expected 0 ticks, got %d", n)
	}
	if n := ht.step(start.Add(3500 * time.Microsecond)); n != 3 {
		t.Fatalf("expected 3 ticks, got %d", n)
	}

	var last uint64
	for i := 0; i < 4; i++ {
		select {
		case seq := <-ht.Ticks():
			if seq != last+1 {
				t.Fatalf("expected tick %d, got %d", last+1, seq)
			}
			last = seq
		default:
			t.Fatalf("expected 4 ticks queued, got %d", i)
		}
	}
}

func TestRunHostStopsAfterBudget(t *testing.T) {
	var buf bytes.Buffer
	h := newHostHAL(&buf, DefaultHz)

	seen := make(chan uint64, 1)
	err := runHost(context.Background(), h, 5, func(ctx context.Context, h HAL) error {
		var n uint64
		for {
			select {
			case <-ctx.Done():
				n += uint64(len(h.Time().Ticks()))
				seen <- n
				return nil
			case <-h.Time().Ticks():
				n++
			}
		}
	})
	if err != nil {
		t.Fatalf("runHost: %v", err)
	}
	if n := <-seen; n == 0 {
		t.Fatal("boot saw no ticks")
	}
}

func TestRunHostReturnsBootError(t *testing.T) {
	h := newHostHAL(&bytes.Buffer{}, DefaultHz)
	halt := errors.New("halted")

	done := make(chan error, 1)
	go func() {
		done <- runHost(context.Background(), h, 0, func(ctx context.Context, h HAL) error {
			<-h.Time().Ticks()
			return halt
		})
	}()
	select {
	case err := <-done:
		if !errors.Is(err, halt) {
			t.Fatalf("expected boot error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runHost did not return")
	}
}

func TestRunHeadlessRejectsHz(t *testing.T) {
	err := RunHeadless(context.Background(), HeadlessConfig{Hz: -1}, func(context.Context, HAL) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "invalid headless hz") {
		t.Fatalf("expected hz error, got %v", err)
	}
}

func TestRunHeadlessCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, HeadlessConfig{}, func(ctx context.Context, h HAL) error {
		<-ctx.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}
