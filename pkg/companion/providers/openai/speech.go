package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

type speechRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

// speechInstructions keeps the synthesized voice in a warm register
// appropriate for young children.
const speechInstructions = "Speak in a warm, gentle, and child-friendly tone. " +
	"Use a caring and encouraging voice that makes children feel safe and understood."

// Speak synthesizes text into an MP3 stream.
func (p *Provider) Speak(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(&speechRequest{
		Model:        p.speechModel,
		Voice:        p.voice,
		Input:        text,
		Instructions: speechInstructions,
	})
	if err != nil {
		return nil, errs.NewProviderError(providerName, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewProviderError(providerName, fmt.Errorf("create request: %w", err))
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return p.do(req)
}
