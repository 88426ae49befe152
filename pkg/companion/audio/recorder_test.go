package audio

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// fakeCapture stands in for the ffmpeg device: it writes one chunk the
// moment the gate opens and counts Stop calls.
type fakeCapture struct {
	stops int
}

func (c *fakeCapture) Stop() { c.stops++ }

func fakeStarter(chunk []byte, capture *fakeCapture) captureStarter {
	return func(gate *Toggle, buffer *ChunkBuffer, _ *slog.Logger) (stopper, error) {
		go func() {
			for !gate.Recording() {
				time.Sleep(time.Millisecond)
			}
			buffer.Append(chunk)
		}()
		return capture, nil
	}
}

func TestToggleRecorderCapturesOneCycle(t *testing.T) {
	t.Parallel()
	gate := NewToggle()
	capture := &fakeCapture{}
	rec := NewToggleRecorder(gate, nil)
	rec.start = fakeStarter([]byte{7, 7}, capture)

	type result struct {
		pcm []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		pcm, err := rec.Record(context.Background())
		done <- result{pcm, err}
	}()

	gate.Flip() // open the window
	time.Sleep(10 * time.Millisecond)
	gate.Flip() // close it

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("record: %v", res.err)
		}
		if len(res.pcm) != 2 {
			t.Fatalf("captured %d bytes, want 2", len(res.pcm))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not finish after toggle cycle")
	}
	if capture.stops == 0 {
		t.Fatal("capture was never stopped")
	}
}

func TestToggleRecorderCancelWhileWaiting(t *testing.T) {
	t.Parallel()
	rec := NewToggleRecorder(NewToggle(), nil)
	rec.start = fakeStarter(nil, &fakeCapture{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := rec.Record(ctx)
		errc <- err
	}()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder ignored cancellation")
	}
}

func TestToggleRecorderDeviceFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("no input device")
	rec := NewToggleRecorder(NewToggle(), nil)
	rec.start = func(*Toggle, *ChunkBuffer, *slog.Logger) (stopper, error) {
		return nil, boom
	}

	if _, err := rec.Record(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want device failure", err)
	}
}

func TestTimedRecorderClosesWindow(t *testing.T) {
	t.Parallel()
	gate := NewToggle()
	rec := NewTimedRecorder(gate, 30*time.Millisecond, nil)
	rec.start = fakeStarter([]byte{1, 2, 3, 4}, &fakeCapture{})

	pcm, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(pcm) != 4 {
		t.Fatalf("captured %d bytes, want 4", len(pcm))
	}
	if gate.Recording() {
		t.Fatal("gate left open after window")
	}
}

func TestTimedRecorderCancelClosesGate(t *testing.T) {
	t.Parallel()
	gate := NewToggle()
	rec := NewTimedRecorder(gate, time.Minute, nil)
	rec.start = fakeStarter(nil, &fakeCapture{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := rec.Record(ctx)
		errc <- err
	}()

	// Wait for the window to open, then cancel mid-window.
	for !gate.Recording() {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder ignored cancellation")
	}
	if gate.Recording() {
		t.Fatal("gate left open after cancelled window")
	}
}

func TestTimedRecorderDefaultWindow(t *testing.T) {
	t.Parallel()
	rec := NewTimedRecorder(NewToggle(), 0, nil)
	if rec.window != DefaultRecordWindow {
		t.Fatalf("window = %v, want %v", rec.window, DefaultRecordWindow)
	}
}
