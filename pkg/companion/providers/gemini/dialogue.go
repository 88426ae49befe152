// Package gemini implements the dialogue collaborator on the Gemini
// API, as an alternative to the OpenAI provider.
package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/todak-labs/todak/pkg/companion/errs"
	"github.com/todak-labs/todak/pkg/companion/providers"
)

// DefaultModel is the dialogue model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

const providerName = "gemini"

// Provider implements providers.Dialogue.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a Provider. An empty model selects DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errs.NewProviderError(providerName, err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Provider{client: client, model: model}, nil
}

// Complete maps the dialogue history onto Gemini contents. A leading
// system message becomes the system instruction.
func (p *Provider) Complete(ctx context.Context, history []providers.Message) (string, error) {
	var cfg *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case providers.RoleSystem:
			cfg = &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{
					Parts: []*genai.Part{{Text: msg.Content}},
				},
			}
		case providers.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", errs.NewProviderError(providerName, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errs.NewProviderStatusError(providerName, 0, "response contained no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
