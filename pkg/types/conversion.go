// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionRequest is one Turkish-to-Ottoman conversion. It is not modified
// during the call.
type ConversionRequest struct {
	// Text is the modern Turkish source text.
	Text string `json:"text" yaml:"text"`

	// KnowledgeBasePath is an optional .txt, .pdf, or .docx document whose
	// text is sent as reference context.
	KnowledgeBasePath string `json:"knowledge_base_path,omitempty" yaml:"knowledge_base_path,omitempty"`

	// Model is the model identifier. Empty uses DefaultModel.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Temperature is the sampling temperature of the first attempt.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Normalize applies NFKC to the output.
	Normalize bool `json:"normalize" yaml:"normalize"`

	// ForceNGFinal applies the NG-final glyph rule when Text ends in "n" or "ng".
	ForceNGFinal bool `json:"force_ng_final" yaml:"force_ng_final"`
}

// FailureKind names why a conversion produced no output.
type FailureKind string

const (
	FailureConfig              FailureKind = "config_error"
	FailureUnsupportedDocument FailureKind = "unsupported_document"
	FailureBackend             FailureKind = "backend_failure"
	FailureEmptyResponse       FailureKind = "empty_response"
)

// Retryable reports whether a later attempt of the same request may succeed.
func (k FailureKind) Retryable() bool {
	return k == FailureBackend || k == FailureEmptyResponse
}
