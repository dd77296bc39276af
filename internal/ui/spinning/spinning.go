// Package spinning provides a spinning symbol, followed by a status line, to show while the program
// is busy (e.g. running a training session in the terminal).
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

var (
	ThemeASCII = []rune(`|/-\`)
	ThemeMoon  = []rune("🌑🌒🌓🌔🌕🌖🌗🌘")
	ThemeChess = []rune("♔♕♖♗♘♙")

	// Theme used by New, it can be set to any of the above.
	Theme = ThemeChess
)

// Interval between updates of the spinner.
const Interval = 250 * time.Millisecond

// Spinning symbol followed by a status that can be updated.
type Spinning struct {
	out    io.Writer
	theme  []rune
	wg     sync.WaitGroup
	cancel func()

	mu     sync.Mutex
	status string
}

// SafeInterrupt will capture SigInt (Ctrl+C) and SigTerm and call the provided onInterrupt.
// If the program haven't exited after gracePeriod, it will call Reset to reset the terminal
// and exit.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("Got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("Graceful shutting down %s period expired, exiting.", gracePeriod)
	}()
}

// Reset terminal: make cursor visible, restore default terminal colors.
func Reset() {
	fmt.Print("\033[?25h\033[39;49;0m\n")
}

// New starts a spinner on stdout, that runs on a separate goroutine until Done is called.
func New(ctx context.Context) *Spinning {
	return NewWithWriter(ctx, os.Stdout, Theme)
}

// NewWithWriter starts a spinner writing to w with the given theme.
func NewWithWriter(ctx context.Context, w io.Writer, theme []rune) *Spinning {
	s := &Spinning{out: w, theme: theme}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// SetStatus sets the text displayed after the spinning symbol.
func (s *Spinning) SetStatus(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fmt.Sprintf(format, args...)
}

func (s *Spinning) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	// Hide the cursor while spinning, and clear the line when done.
	_, _ = fmt.Fprint(s.out, "\033[?25l")
	defer fmt.Fprint(s.out, "\033[2K\r\033[?25h")
	for idx := 0; ; idx = (idx + 1) % len(s.theme) {
		s.mu.Lock()
		status := s.status
		s.mu.Unlock()
		_, _ = fmt.Fprintf(s.out, "\033[2K\r%c %s", s.theme[idx], status)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Done stops the spinner and clears its line. It can be called more than once.
func (s *Spinning) Done() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
