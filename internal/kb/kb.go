// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb loads knowledge-base documents whose text is sent to the model
// as reference context. Plain text, PDF, and DOCX documents are supported,
// each through its own Extractor.
package kb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxChars is the maximum number of characters of knowledge-base text kept.
const MaxChars = 200_000

// ErrUnsupportedDocument is returned for files whose extension has no
// Extractor.
var ErrUnsupportedDocument = errors.New("unsupported document type: use .txt, .pdf, or .docx")

// Extractor reads the text content of one document format.
type Extractor interface {
	// Extract reads the document at path and returns its text.
	Extract(path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string) (string, error)

// Extract calls f(path).
func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

// extractors maps a lower-case file extension to its Extractor.
var extractors = map[string]Extractor{
	".txt":  ExtractorFunc(readText),
	".pdf":  ExtractorFunc(readPDF),
	".docx": ExtractorFunc(readDocx),
}

// Supported reports whether name has an extension Load can read.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the accepted extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load returns the text of the document at path, truncated to MaxChars
// characters. An empty path yields "" and no error.
func Load(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	x, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w (got %q)", ErrUnsupportedDocument, filepath.Base(path))
	}

	raw, err := x.Extract(path)
	if err != nil {
		return "", err
	}
	return Truncate(raw, MaxChars), nil
}

// Truncate returns the first n characters (Unicode scalar values) of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// readText reads a UTF-8 text file.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("reading %s: not valid UTF-8", path)
	}
	return string(data), nil
}
