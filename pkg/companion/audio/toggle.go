package audio

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Toggle is the shared recording flag flipped by a single external
// signal source and read concurrently by the capture gate and the
// session's wait loop. It is never copied; all readers share one value.
type Toggle struct {
	recording atomic.Bool
}

// NewToggle returns a Toggle in the idle state.
func NewToggle() *Toggle {
	return &Toggle{}
}

// Flip inverts the state and returns the new value. Called only from
// the signal-handling context.
func (t *Toggle) Flip() bool {
	for {
		old := t.recording.Load()
		if t.recording.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Recording reports whether a recording window is open.
func (t *Toggle) Recording() bool {
	return t.recording.Load()
}

// set forces the state. Only the fixed-window recorder uses it; that
// recorder owns the gate for the duration of its window.
func (t *Toggle) set(recording bool) {
	t.recording.Store(recording)
}

// ToggleSource feeds flip signals to a Toggle. Implementations do
// nothing but flip the flag; all other turn logic lives elsewhere so
// the signal path stays short and non-blocking.
type ToggleSource interface {
	Run(ctx context.Context, t *Toggle)
}

// ToggleKey is the key a child presses to start and stop a recording.
const ToggleKey = "="

// KeySource flips the toggle whenever a line containing the toggle key
// arrives on the reader (stdin in practice). A rapid double signal is
// start-then-immediate-stop; there is no debounce window.
type KeySource struct {
	r      io.Reader
	logger *slog.Logger
}

// NewKeySource returns a KeySource reading from r.
func NewKeySource(r io.Reader, logger *slog.Logger) *KeySource {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeySource{r: r, logger: logger}
}

// Run reads lines until ctx is cancelled or the reader is closed. The
// scan happens on an inner goroutine so cancellation returns without
// waiting for input; the goroutine itself unblocks on the reader's
// next line or EOF.
func (s *KeySource) Run(ctx context.Context, t *Toggle) {
	lines := make(chan string)
	closed := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		closed <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-closed:
			if err != nil {
				s.logger.Warn("toggle source closed", "error", err)
			}
			return
		case line := <-lines:
			if !strings.Contains(line, ToggleKey) {
				continue
			}
			if t.Flip() {
				s.logger.Info("recording started")
			} else {
				s.logger.Info("recording stopped")
			}
		}
	}
}
