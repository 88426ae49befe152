package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/todak-labs/todak/pkg/companion/errs"
	"github.com/todak-labs/todak/pkg/companion/providers"
)

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []providers.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the full history to the chat completions endpoint and
// returns the assistant's reply.
func (p *Provider) Complete(ctx context.Context, history []providers.Message) (string, error) {
	body, err := json.Marshal(&chatRequest{Model: p.dialogueModel, Messages: history})
	if err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("create request: %w", err))
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := p.do(req)
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("decode chat response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", errs.NewProviderStatusError(providerName, 0, "chat response contained no choices")
	}
	return out.Choices[0].Message.Content, nil
}
