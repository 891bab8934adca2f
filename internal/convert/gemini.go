// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/pdiddy/ottoman-converter/internal/secrets"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	client            *genai.Client
	systemInstruction *genai.Content
}

// GeminiOptions configures NewGeminiBackend beyond the AIConfig.
type GeminiOptions struct {
	// HTTPClient carries timeouts and the 429 retry transport. Nil uses the
	// SDK default.
	HTTPClient *http.Client

	// BaseURL overrides the API endpoint. Tests point it at httptest.
	BaseURL string
}

// NewGeminiBackend creates the model handle. The API key must already be
// resolved into cfg.APIKey; an empty key is a configuration error. Whether
// the scribe persona is attached as a system instruction is decided here,
// once, from cfg.SystemInstruction.
func NewGeminiBackend(ctx context.Context, cfg types.AIConfig, opts GeminiOptions) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, newError(types.FailureConfig, secrets.ErrNoAPIKey)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, newError(types.FailureConfig, fmt.Errorf("creating Gemini client: %w", err))
	}

	g := &GeminiBackend{client: client}
	if cfg.SystemInstruction {
		g.systemInstruction = genai.NewContentFromText(SystemInstruction, genai.RoleUser)
	}
	return g, nil
}

// Generate sends one GenerateContent request.
func (g *GeminiBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents := make([]*genai.Content, len(req.Messages))
	for i, m := range req.Messages {
		contents[i] = genai.NewContentFromText(m.Text, geminiRole(m.Role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		SystemInstruction: g.systemInstruction,
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	return resp.Text(), nil
}

// geminiRole maps transcript roles onto the API's user/model roles.
func geminiRole(r types.Role) genai.Role {
	if r == types.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}
