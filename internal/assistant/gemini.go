package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// Gemini is a Model backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Model = (*Gemini)(nil)

// NewGemini creates a Gemini model client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the model name.
func (g *Gemini) Name() string { return g.model }

// Close satisfies io.Closer. The client keeps no connection of its own, so
// there is nothing to release.
func (g *Gemini) Close() error { return nil }

// Generate implements Model.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("GenAI returned an empty reply")
	}
	return text, nil
}

// Settings sheet columns that may hold the API key.
const (
	ColumnAPIKey       = "GEMINI_API_KEY"
	ColumnSettingName  = "TEN_CAU_HINH"
	ColumnSettingValue = "GIA_TRI"
)

// ResolveAPIKey returns configured when set. Otherwise it looks in the
// settings sheet: first a GEMINI_API_KEY column, then a TEN_CAU_HINH row
// whose name mentions gemini, taking its GIA_TRI.
func ResolveAPIKey(configured string, settings *types.Table) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if settings != nil && settings.Len() > 0 {
		if key := strings.TrimSpace(settings.Cell(0, ColumnAPIKey).String()); key != "" {
			return key, nil
		}
		if settings.Has(ColumnSettingName) && settings.Has(ColumnSettingValue) {
			for r := range settings.Rows {
				name := strings.ToLower(settings.Cell(r, ColumnSettingName).String())
				if strings.Contains(name, "gemini") {
					if key := strings.TrimSpace(settings.Cell(r, ColumnSettingValue).String()); key != "" {
						return key, nil
					}
					break
				}
			}
		}
	}
	return "", ErrNoAPIKey
}
