// Package providers defines the external collaborator contracts the
// session consumes: speech-to-text, dialogue generation, and speech
// synthesis. All calls are stateless request/response; the caller
// supplies full history.
package providers

import "context"

// Message is one entry of a dialogue history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in dialogue history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Transcriber converts a WAV-encoded utterance (PCM16 mono 16 kHz) to
// text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Dialogue produces the assistant's next reply given the full ordered
// history.
type Dialogue interface {
	Complete(ctx context.Context, history []Message) (string, error)
}

// Synthesizer converts text to a playable audio stream.
type Synthesizer interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}
