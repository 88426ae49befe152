package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

const (
	// SampleRate is the fixed capture rate in Hz: mono 16-bit PCM.
	SampleRate = 16000

	// chunkSamples keeps end-to-end latency low while avoiding a read
	// syscall per sample.
	chunkSamples      = 1024
	bytesPerSample    = 2
	captureChunkBytes = chunkSamples * bytesPerSample
)

// Capture owns the microphone for the duration of one recording window.
// An ffmpeg subprocess emits s16le mono PCM on stdout; a reader
// goroutine slices the stream into chunks and appends them to the
// buffer only while the gate reads Recording. The device samples
// continuously regardless of gate state.
type Capture struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	gate   *Toggle
	buffer *ChunkBuffer
	logger *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// StartCapture opens the default input device and begins sampling.
// It fails with a DeviceError when ffmpeg is missing, the platform is
// unsupported, or the device cannot be opened.
func StartCapture(gate *Toggle, buffer *ChunkBuffer, logger *slog.Logger) (*Capture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errs.NewDeviceError("open", errors.New("ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)"))
	}
	args, err := micArgs(runtime.GOOS)
	if err != nil {
		return nil, errs.NewDeviceError("open", err)
	}

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.NewDeviceError("open", fmt.Errorf("open ffmpeg stdout: %w", err))
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, errs.NewDeviceError("open", fmt.Errorf("start ffmpeg capture: %w", err))
	}

	c := &Capture{
		cmd:    cmd,
		stdout: stdout,
		gate:   gate,
		buffer: buffer,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func micArgs(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", fmt.Sprintf("%d", SampleRate),
			"-f", "s16le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", fmt.Sprintf("%d", SampleRate),
			"-f", "s16le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("microphone capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

// readLoop holds no locks across device reads; only the buffer append
// is inside a critical section.
func (c *Capture) readLoop() {
	defer close(c.done)
	buf := make([]byte, captureChunkBytes)
	for {
		n, err := io.ReadFull(c.stdout, buf)
		if n > 0 && c.gate.Recording() {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.buffer.Append(chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.logger.Debug("capture read ended", "error", err)
			}
			return
		}
	}
}

// Stop closes the device. It is idempotent and does not discard chunks
// that were appended before the stop; the caller drains the buffer
// afterwards.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
			_ = c.cmd.Wait()
		}
		<-c.done
	})
}
