package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

// Transcribe uploads a WAV utterance and returns the transcript text.
func (p *Provider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("create form file: %w", err))
	}
	if _, err := fw.Write(wav); err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("write audio data: %w", err))
	}
	if err := mw.WriteField("model", p.transcribeModel); err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("write model field: %w", err))
	}
	if err := mw.Close(); err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("close multipart writer: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("create request: %w", err))
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := p.do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errs.NewProviderError(providerName, fmt.Errorf("decode transcription response: %w", err))
	}
	return out.Text, nil
}
