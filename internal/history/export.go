// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats accepted by Export.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export writes a session and its transcript to w in the given format.
func (s *Store) Export(ctx context.Context, id, format string, w io.Writer) error {
	switch format {
	case FormatYAML, "":
		return s.ExportYAML(ctx, id, w)
	case FormatJSON:
		return s.ExportJSON(ctx, id, w)
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}
}

// ExportYAML writes a session and its transcript to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, id string, w io.Writer) error {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sess); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes a session and its transcript to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, id string, w io.Writer) error {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sess); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
