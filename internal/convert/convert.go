// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns modern Turkish text into Ottoman Turkish in Arabic
// script. It loads optional knowledge-base context, builds the prompt, calls
// the model with one retry, and post-processes the output.
package convert

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/ottoman-converter/internal/kb"
	"github.com/pdiddy/ottoman-converter/internal/script"
	"github.com/pdiddy/ottoman-converter/internal/secrets"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// Converter runs conversions against one Backend. It holds no mutable state
// and is safe for concurrent use.
type Converter struct {
	backend Backend
	loader  kb.Extractor
	logger  *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithLoader replaces the knowledge-base loader (default kb.Load).
func WithLoader(x kb.Extractor) Option {
	return func(c *Converter) { c.loader = x }
}

// New returns a Converter that generates with backend.
func New(backend Backend, opts ...Option) *Converter {
	c := &Converter{
		backend: backend,
		loader:  kb.ExtractorFunc(kb.Load),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs one conversion. On failure the error is an *Error.
//
// NFKC runs before the NG-final rule, and the rule is gated on the input
// text ending in "n" or "ng", not on the output.
func (c *Converter) Convert(ctx context.Context, req types.ConversionRequest) (string, error) {
	start := time.Now()
	model := req.Model
	if model == "" {
		model = types.DefaultModel
	}

	out, err := c.convert(ctx, model, req)

	fields := []zap.Field{
		zap.String("model", model),
		zap.Int("input_chars", utf8.RuneCountInString(req.Text)),
		zap.Bool("knowledge_base", req.KnowledgeBasePath != ""),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		c.logger.Warn("conversion failed",
			append(fields, zap.String("kind", string(KindOf(err))), zap.Error(err))...)
		return "", err
	}
	c.logger.Info("conversion done", append(fields, zap.Int("output_chars", utf8.RuneCountInString(out)))...)
	return out, nil
}

func (c *Converter) convert(ctx context.Context, model string, req types.ConversionRequest) (string, error) {
	if c.backend == nil {
		return "", newError(types.FailureConfig, secrets.ErrNoAPIKey)
	}

	kbText, err := c.loader.Extract(req.KnowledgeBasePath)
	if err != nil {
		e := newError(types.FailureUnsupportedDocument, err)
		if !errors.Is(err, kb.ErrUnsupportedDocument) {
			e.Detail = "knowledge base could not be read: " + err.Error()
		}
		return "", e
	}

	out, err := Generate(ctx, c.backend, GenerateRequest{
		Model:       model,
		Messages:    BuildMessages(req.Text, kbText),
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	if req.Normalize {
		out = norm.NFKC.String(out)
	}
	if req.ForceNGFinal && script.EndsWithNasal(req.Text) {
		out = script.ReplaceLastArabic(out)
	}
	return out, nil
}
