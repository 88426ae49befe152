package audio

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestToggleFlipCycle(t *testing.T) {
	t.Parallel()
	toggle := NewToggle()

	if toggle.Recording() {
		t.Fatal("new toggle should be idle")
	}
	if !toggle.Flip() {
		t.Fatal("first flip should start recording")
	}
	if !toggle.Recording() {
		t.Fatal("toggle should report recording after first flip")
	}
	if toggle.Flip() {
		t.Fatal("second flip should stop recording")
	}
	if toggle.Recording() {
		t.Fatal("toggle should be idle after full cycle")
	}
}

func TestKeySourceFlipsOnToggleKey(t *testing.T) {
	t.Parallel()
	toggle := NewToggle()
	source := NewKeySource(strings.NewReader("hello\n=\nworld\n"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		source.Run(ctx, toggle)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key source did not finish")
	}
	if !toggle.Recording() {
		t.Fatal("single toggle key should leave recording on")
	}
}

func TestKeySourceStopsOnCancelWithoutInput(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	defer w.Close()
	source := NewKeySource(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		source.Run(ctx, NewToggle())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key source did not stop on cancel while waiting for input")
	}
}

func TestKeySourceDoubleToggleIsStartThenStop(t *testing.T) {
	t.Parallel()
	toggle := NewToggle()
	source := NewKeySource(strings.NewReader("=\n=\n"), nil)

	done := make(chan struct{})
	go func() {
		source.Run(context.Background(), toggle)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key source did not finish")
	}
	if toggle.Recording() {
		t.Fatal("double toggle should end idle")
	}
}
