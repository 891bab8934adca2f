// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts plain text page by page. A page that fails to extract
// contributes nothing; the remaining pages are still returned.
func readPDF(path string) (string, error) {
	f, r, err := openPDF(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var parts []string
	for n := 1; n <= r.NumPage(); n++ {
		text, err := pageText(r, n)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// openPDF wraps pdf.Open, which panics on some malformed trailers.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return pdf.Open(path)
}

func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
