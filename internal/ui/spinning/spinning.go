// Package spinning provides a terminal spinner shown while the engine is
// planning (SelectAction running its simulations), plus the small amount
// of context/signal plumbing a long-running CLI needs: a wall-clock
// run budget and graceful Ctrl+C handling.
package spinning

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

type Spinning struct {
	wg     sync.WaitGroup
	cancel func()
}

var (
	ThemeAscii = []rune("|/-\\")
	ThemeClock = []rune("🕐🕑🕒🕓🕔🕕🕖🕗🕘🕙🕚🕛")

	// Theme defaults to ThemeClock, but it can be set to anything else.
	Theme       = ThemeClock
	spinningIdx int
	themeLen    = len(Theme)
)

// WithBudget returns a context that is cancelled after timeout: the
// CLI's --timeout flag, a wall-clock budget for the whole run that the
// experiment driver checks before each decision (SelectAction itself
// does not observe it). A timeout <= 0 means unbounded: the returned
// context only ever cancels via parent cancellation.
func WithBudget(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// SafeInterrupt captures SIGINT/SIGTERM and calls onInterrupt. If the
// program hasn't exited after gracePeriod, it resets the terminal and
// exits forcibly. Used by cmd/pomcp to let an in-flight experiment run
// flush its partial results before the process dies.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("graceful shutdown period (%s) expired, exiting", gracePeriod)
	}()
}

// Reset restores the terminal: visible cursor, default colors.
func Reset() {
	fmt.Print("\033[?25h\033[39;49;0m\n")
}

// New starts a spinner on its own goroutine, running until Done is
// called. Intended for the CLI's single-episode mode, where one
// SelectAction call can take seconds and the user gets no other
// feedback in the meantime.
func New(ctx context.Context) *Spinning {
	s := &Spinning{}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		fmt.Print("\033[?25l")
		defer fmt.Print("\033[?25h")

		fmt.Print("  ")
		for {
			symbol := Theme[spinningIdx%len(Theme)]
			fmt.Printf("\b\b%c", symbol)
			spinningIdx = (spinningIdx + 1) % len(Theme)
			select {
			case <-ctx.Done():
				fmt.Print("\b\b")
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}
