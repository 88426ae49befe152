package audio

import (
	"context"
	"log/slog"
	"time"
)

// Recorder captures one utterance and returns the raw PCM, or nil when
// no speech was captured. The toggle-driven and fixed-duration recorders
// are two policies of the same Recording phase, selected at session
// start.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// togglePollInterval is how often the recorder re-checks the toggle
// while waiting for a window edge.
const togglePollInterval = 100 * time.Millisecond

// DefaultRecordWindow is the fixed recording duration used when no
// toggle signal source is available.
const DefaultRecordWindow = 5 * time.Second

// stopper is what a recorder needs from a running capture.
type stopper interface {
	Stop()
}

// captureStarter opens a capture; swapped out in tests.
type captureStarter func(gate *Toggle, buffer *ChunkBuffer, logger *slog.Logger) (stopper, error)

func defaultStarter(gate *Toggle, buffer *ChunkBuffer, logger *slog.Logger) (stopper, error) {
	return StartCapture(gate, buffer, logger)
}

// ToggleRecorder records across one full Idle -> Recording -> Idle
// toggle cycle.
type ToggleRecorder struct {
	gate   *Toggle
	logger *slog.Logger
	start  captureStarter
}

// NewToggleRecorder returns a recorder driven by the shared toggle.
func NewToggleRecorder(gate *Toggle, logger *slog.Logger) *ToggleRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToggleRecorder{gate: gate, logger: logger, start: defaultStarter}
}

// Record opens the device, waits for a full toggle cycle, then drains
// whatever the capture gate let through. Remaining buffered chunks are
// collected after the gate closes and before the device shuts down.
func (r *ToggleRecorder) Record(ctx context.Context) ([]byte, error) {
	buffer := NewChunkBuffer()
	capture, err := r.start(r.gate, buffer, r.logger)
	if err != nil {
		return nil, err
	}
	defer capture.Stop()

	if err := r.waitToggle(ctx, true); err != nil {
		return nil, err
	}
	if err := r.waitToggle(ctx, false); err != nil {
		return nil, err
	}

	capture.Stop()
	return buffer.Drain(), nil
}

func (r *ToggleRecorder) waitToggle(ctx context.Context, want bool) error {
	ticker := time.NewTicker(togglePollInterval)
	defer ticker.Stop()
	for r.gate.Recording() != want {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// TimedRecorder records for a fixed window, independent of any toggle
// signal. It owns the gate for the duration of the window.
type TimedRecorder struct {
	gate   *Toggle
	window time.Duration
	logger *slog.Logger
	start  captureStarter
}

// NewTimedRecorder returns a fixed-window recorder.
func NewTimedRecorder(gate *Toggle, window time.Duration, logger *slog.Logger) *TimedRecorder {
	if window <= 0 {
		window = DefaultRecordWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TimedRecorder{gate: gate, window: window, logger: logger, start: defaultStarter}
}

// Record opens the window immediately and closes it after the fixed
// duration.
func (r *TimedRecorder) Record(ctx context.Context) ([]byte, error) {
	buffer := NewChunkBuffer()
	capture, err := r.start(r.gate, buffer, r.logger)
	if err != nil {
		return nil, err
	}
	defer capture.Stop()

	r.gate.set(true)

	select {
	case <-ctx.Done():
		r.gate.set(false)
		return nil, ctx.Err()
	case <-time.After(r.window):
	}

	r.gate.set(false)
	capture.Stop()
	return buffer.Drain(), nil
}
