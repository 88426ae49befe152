// Package openai implements the transcription, dialogue, and synthesis
// collaborators on the OpenAI HTTP API.
package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

const (
	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// Model defaults. The voice is chosen for a warm, child-friendly
	// register.
	DefaultTranscribeModel = "whisper-1"
	DefaultDialogueModel   = "gpt-4o-mini"
	DefaultSpeechModel     = "tts-1"
	DefaultVoice           = "nova"

	providerName = "openai"
)

// Provider implements providers.Transcriber, providers.Dialogue, and
// providers.Synthesizer.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	transcribeModel string
	dialogueModel   string
	speechModel     string
	voice           string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithDialogueModel overrides the chat model.
func WithDialogueModel(model string) Option {
	return func(p *Provider) { p.dialogueModel = model }
}

// WithVoice overrides the synthesis voice.
func WithVoice(voice string) Option {
	return func(p *Provider) { p.voice = voice }
}

// New creates a Provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		httpClient:      &http.Client{},
		transcribeModel: DefaultTranscribeModel,
		dialogueModel:   DefaultDialogueModel,
		speechModel:     DefaultSpeechModel,
		voice:           DefaultVoice,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return providerName }

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

// parseError converts a non-2xx response into a ProviderError.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}
	return errs.NewProviderStatusError(providerName, resp.StatusCode, message)
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewProviderError(providerName, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, p.parseError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewProviderError(providerName, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}
