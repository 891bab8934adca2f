// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// SystemInstruction is the scribe persona sent as the model's system
// instruction when the backend supports one.
const SystemInstruction = "You are an expert Ottoman Turkish scribe. Convert modern Turkish (Latin alphabet) input " +
	"into Ottoman Turkish written with the Ottoman Arabic script. Do not translate meaning; " +
	"produce orthographic rendering in Ottoman letters. Preserve punctuation and numbers. " +
	"Use standard Ottoman orthography; when ambiguous, prefer the most common historical form. " +
	"If reference context is provided, follow its conventions. Output only the Ottoman-script text."

// conversionInstruction precedes the user's text in the final message.
const conversionInstruction = "Convert the following modern Turkish text to Ottoman Turkish (Arabic script). " +
	"Return only the converted Ottoman-script text, no explanations."

// referencePrefix frames knowledge-base text as grounding context.
const referencePrefix = "Reference context about Ottoman orthography:\n\n"

var conversionPromptTmpl = template.Must(template.New("conversion").Parse(
	"{{.Instruction}}\n\nText:\n{{.Text}}"))

// Message is one role-tagged prompt message.
type Message struct {
	Role types.Role
	Text string
}

// BuildMessages returns the prompt for one conversion: the reference
// context first when kbText is non-empty, then the instruction followed by
// the text to convert.
func BuildMessages(text, kbText string) []Message {
	msgs := make([]Message, 0, 2)
	if kbText != "" {
		msgs = append(msgs, Message{Role: types.RoleUser, Text: referencePrefix + kbText})
	}
	msgs = append(msgs, Message{Role: types.RoleUser, Text: renderPrompt(text)})
	return msgs
}

func renderPrompt(text string) string {
	var buf bytes.Buffer
	// The template has no fallible actions; Execute only fails on writer
	// errors, which bytes.Buffer never returns.
	_ = conversionPromptTmpl.Execute(&buf, struct{ Instruction, Text string }{
		Instruction: conversionInstruction,
		Text:        text,
	})
	return buf.String()
}
