// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-pro"

// AIConfig holds settings for the Generative AI backend.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.5-pro").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API. When empty the key is
	// resolved from the secrets directory or the environment.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature for the first attempt.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries bounds the HTTP 429 retries of the transport (default 3).
	// It does not change the single generation retry.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the HTTP request timeout for one model call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// SystemInstruction controls whether the scribe persona is sent as a
	// system instruction. Some model variants reject the parameter.
	SystemInstruction bool `json:"system_instruction" yaml:"system_instruction"`
}

// ConversionConfig holds the post-processing defaults for conversions.
type ConversionConfig struct {
	// Normalize applies Unicode NFKC to the model output.
	Normalize bool `json:"normalize" yaml:"normalize"`

	// ForceNGFinal applies the NG-final glyph rule when the input ends in
	// "n" or "ng".
	ForceNGFinal bool `json:"force_ng_final" yaml:"force_ng_final"`

	// KnowledgeBase is the default knowledge-base document (.txt, .pdf, .docx).
	KnowledgeBase string `json:"knowledge_base,omitempty" yaml:"knowledge_base,omitempty"`
}

// ServerConfig holds settings for the chat web UI.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8501").
	Addr string `json:"addr" yaml:"addr"`

	// Rate is the sustained number of conversion requests per second.
	Rate float64 `json:"rate" yaml:"rate"`

	// Burst is the token bucket size for the rate limiter.
	Burst int `json:"burst" yaml:"burst"`

	// MaxUploadBytes bounds the size of a knowledge-base upload.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// HistoryConfig holds settings for the transcript store.
type HistoryConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db" yaml:"db"`

	// MaxSessions is the default number of sessions listed (default 20).
	MaxSessions int `json:"max_sessions" yaml:"max_sessions"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}
