// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// resolves the Gemini API key. Each file in the directory represents one
// secret: the filename is the key name and the file contents (trimmed) are
// the value.
//
// Supported key files: google-api-key, gemini-api-key.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names in the secrets directory, in lookup order.
const (
	KeyGoogleAPIKey = "google-api-key"
	KeyGeminiAPIKey = "gemini-api-key"
)

// Environment variables consulted after the secrets directory, in order.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// ErrNoAPIKey is returned when no Gemini API key could be resolved.
var ErrNoAPIKey = errors.New("no Gemini API key: set ai.api_key, .secrets/google-api-key, GOOGLE_API_KEY, or GEMINI_API_KEY")

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ResolveAPIKey returns the first non-empty key from: explicit, the secret
// store (google-api-key, then gemini-api-key), GOOGLE_API_KEY, and
// GEMINI_API_KEY. It returns ErrNoAPIKey when all are empty.
func ResolveAPIKey(explicit string, store map[string]string) (string, error) {
	candidates := []string{
		explicit,
		store[KeyGoogleAPIKey],
		store[KeyGeminiAPIKey],
		os.Getenv(EnvGoogleAPIKey),
		os.Getenv(EnvGeminiAPIKey),
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c, nil
		}
	}
	return "", ErrNoAPIKey
}
