package audio

import "sync"

// ChunkBuffer is the FIFO of raw PCM chunks shared between the capture
// goroutine (producer) and the session loop (consumer). It is unbounded;
// a recording window is short enough that memory is not a concern.
type ChunkBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
}

// NewChunkBuffer returns an empty buffer.
func NewChunkBuffer() *ChunkBuffer {
	return &ChunkBuffer{}
}

// Append enqueues one captured chunk. The chunk is owned by the buffer
// after the call.
func (b *ChunkBuffer) Append(chunk []byte) {
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
}

// Len reports the number of buffered chunks.
func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Drain removes all buffered chunks and returns them concatenated into
// a single PCM byte sequence, preserving capture order. Returns nil if
// nothing was captured.
func (b *ChunkBuffer) Drain() []byte {
	b.mu.Lock()
	chunks := b.chunks
	b.chunks = nil
	b.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
