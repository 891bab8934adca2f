// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a chat transcript.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// FailureKind records why an assistant turn has no conversion output.
	// Empty on success.
	FailureKind FailureKind `json:"failure_kind,omitempty" yaml:"failure_kind,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// FailedContent is the assistant content stored for a failed conversion.
const FailedContent = "(temporary service issue)"

// FailedReply returns the assistant message recorded when a conversion fails
// with kind.
func FailedReply(kind FailureKind) Message {
	return Message{Role: RoleAssistant, Content: FailedContent, FailureKind: kind}
}

// Failed reports whether the message stands in for a failed conversion.
func (m Message) Failed() bool {
	return m.FailureKind != ""
}

// Session is a chat conversation. The caller owns it and passes it through
// each request; there is no process-wide transcript.
type Session struct {
	// ID is a UUID.
	ID string `json:"id" yaml:"id"`

	// Title is the first user message, shortened.
	Title string `json:"title" yaml:"title"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	Messages []Message `json:"messages,omitempty" yaml:"messages,omitempty"`
}
