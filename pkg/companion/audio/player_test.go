package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

func TestPlayerSerializesConcurrentPlayback(t *testing.T) {
	t.Parallel()
	var active, maxActive int32
	player := &FFplayPlayer{run: func(ctx context.Context, _ []byte) error {
		n := atomic.AddInt32(&active, 1)
		for {
			cur := atomic.LoadInt32(&maxActive)
			if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := player.Play(context.Background(), []byte{1}); err != nil {
				t.Errorf("play: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Fatalf("%d playbacks ran at once, want at most 1", got)
	}
}

func TestPlayerSkipsEmptyAudio(t *testing.T) {
	t.Parallel()
	var calls int32
	player := &FFplayPlayer{run: func(context.Context, []byte) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}

	if err := player.Play(context.Background(), nil); err != nil {
		t.Fatalf("play: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("empty audio should not start a playback process")
	}
}

func TestPlayerWrapsProcessFailure(t *testing.T) {
	t.Parallel()
	player := &FFplayPlayer{run: func(context.Context, []byte) error {
		return errors.New("exit status 1")
	}}

	err := player.Play(context.Background(), []byte{1})
	var devErr *errs.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want DeviceError", err)
	}
	if devErr.Op != "playback" {
		t.Fatalf("op = %q", devErr.Op)
	}
}

func TestPlayerCancelledContextWins(t *testing.T) {
	t.Parallel()
	player := &FFplayPlayer{run: func(ctx context.Context, _ []byte) error {
		<-ctx.Done()
		return errors.New("signal: killed")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := player.Play(ctx, []byte{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
