package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

// Player plays one synthesized utterance to completion. Play blocks
// until playback ends; implementations are safe for concurrent callers.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// playbackRunner runs one playback to completion; swapped out in tests.
type playbackRunner func(ctx context.Context, audio []byte) error

// FFplayPlayer plays audio through an ffplay subprocess. The mutex
// makes playback exclusive: the session loop and the inbound-message
// speaker share one instance, and whichever acquires it first plays
// first. There is no priority between them.
type FFplayPlayer struct {
	mu  sync.Mutex
	run playbackRunner
}

// NewFFplayPlayer verifies ffplay is available.
func NewFFplayPlayer() (*FFplayPlayer, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, errs.NewDeviceError("open", errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)"))
	}
	return &FFplayPlayer{run: runFFplay}, nil
}

func runFFplay(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, "ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

// Play writes the audio stream to the playback process and waits for it
// to finish.
func (p *FFplayPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.run(ctx, audio); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewDeviceError("playback", err)
	}
	return nil
}
