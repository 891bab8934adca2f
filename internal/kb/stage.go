// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Stage writes an uploaded document to a temporary file so Load can read it
// by path. The file keeps the extension of name. The returned cleanup
// removes the file and is safe to call more than once; callers defer it
// right after a successful Stage.
func Stage(r io.Reader, name string) (path string, cleanup func(), err error) {
	noop := func() {}

	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(ext) {
		return "", noop, fmt.Errorf("%w (got %q)", ErrUnsupportedDocument, filepath.Base(name))
	}

	f, err := os.CreateTemp("", "ottoman-kb-*"+ext)
	if err != nil {
		return "", noop, fmt.Errorf("creating temp file: %w", err)
	}
	path = f.Name()
	cleanup = func() { os.Remove(path) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", noop, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("closing %s: %w", path, err)
	}
	return path, cleanup, nil
}
