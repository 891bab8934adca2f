// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxMainPart = "word/document.xml"

// readDocx returns the text of each body paragraph of a DOCX document,
// joined by newlines. Paragraphs nested in tables or text boxes are not
// body paragraphs and are skipped.
func readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening DOCX %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxMainPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s in %s: %w", docxMainPart, path, err)
		}
		defer rc.Close()

		paragraphs, err := docxParagraphs(rc)
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", path, err)
		}
		return strings.Join(paragraphs, "\n"), nil
	}
	return "", fmt.Errorf("DOCX %s has no %s", path, docxMainPart)
}

// docxParagraphs streams WordprocessingML and collects the text of each
// w:p that is a direct child of w:body. w:tab becomes a tab and w:br/w:cr a
// newline.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		cur        strings.Builder
		inPara     bool
		paraDepth  int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "p" && !inPara && len(stack) > 0 && stack[len(stack)-1] == "body" {
				inPara = true
				paraDepth = len(stack)
				cur.Reset()
			}
			stack = append(stack, name)
			if !inPara || nestedParagraph(stack, paraDepth) {
				continue
			}
			switch name {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if t.Name.Local == "t" {
				inText = false
			}
			if inPara && len(stack) == paraDepth {
				paragraphs = append(paragraphs, cur.String())
				inPara = false
			}

		case xml.CharData:
			if inPara && inText && !nestedParagraph(stack, paraDepth) {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// nestedParagraph reports whether the element stack has entered another w:p
// below the body paragraph opened at depth.
func nestedParagraph(stack []string, depth int) bool {
	for _, name := range stack[depth+1:] {
		if name == "p" {
			return true
		}
	}
	return false
}
