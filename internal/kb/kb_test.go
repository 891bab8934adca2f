// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// writePDF builds an uncompressed PDF with one page per content stream,
// with the xref offsets computed as the objects are written.
func writePDF(t *testing.T, dir, name string, contents ...string) string {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)))
	for i, c := range contents {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R >>", 4+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return writeFile(t, dir, name, buf.Bytes())
}

func pdfText(s string) string {
	return "BT /F1 12 Tf 72 712 Td (" + s + ") Tj ET"
}

// writeDocx builds a minimal DOCX containing documentXML as word/document.xml.
func writeDocx(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	w, err = zw.Create(docxMainPart)
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return writeFile(t, dir, name, buf.Bytes())
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// --- Load ---

func TestLoad_EmptyPath(t *testing.T) {
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestLoad_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "imla.txt", []byte("Osmanlı imlâsı\nkâf-ı nûnî: ڭ\n"))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Osmanlı imlâsı\nkâf-ı nûnî: ڭ\n", got)
}

func TestLoad_UppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "NOTES.TXT", []byte("kaide"))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kaide", got)
}

func TestLoad_TruncatesLongText(t *testing.T) {
	dir := t.TempDir()
	// Multi-byte characters make sure truncation counts characters, not bytes.
	content := strings.Repeat("ş", MaxChars+1234)
	path := writeFile(t, dir, "long.txt", []byte(content))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MaxChars, utf8.RuneCountInString(got))
	assert.Equal(t, content[:len(got)], got)
}

func TestLoad_ExactlyMaxChars(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("a", MaxChars)
	path := writeFile(t, dir, "exact.txt", []byte(content))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "latin1.txt", []byte{'T', 0xfc, 'r', 'k'})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid UTF-8")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	for _, name := range []string{"notes.md", "scan.png", "book.doc", "noext"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, name, []byte("text"))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedDocument))
			assert.Contains(t, err.Error(), ".txt, .pdf, or .docx")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedDocument))
}

func TestLoad_MalformedPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", []byte("this is not a pdf"))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening PDF")
}

func TestLoad_PDF(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{
			name:  "single page",
			pages: []string{pdfText("Kaide bir")},
			want:  "Kaide bir",
		},
		{
			name:  "pages joined by newline",
			pages: []string{pdfText("Kaide bir"), pdfText("Kaide iki")},
			want:  "Kaide bir\nKaide iki",
		},
		{
			// Tf with one operand makes the page fail to extract.
			name:  "failing page is skipped",
			pages: []string{pdfText("Kaide bir"), "BT 12 Tf (kayip) Tj ET", pdfText("Kaide uc")},
			want:  "Kaide bir\nKaide uc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePDF(t, t.TempDir(), "rules.pdf", tt.pages...)

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Docx(t *testing.T) {
	dir := t.TempDir()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + wordNS + `>
  <w:body>
    <w:p><w:r><w:t>Birinci</w:t></w:r><w:r><w:t xml:space="preserve"> paragraf</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Sütun</w:t><w:tab/><w:t>iki</w:t><w:br/><w:t>satır</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>tablo</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:hyperlink><w:r><w:t>bağlantı</w:t></w:r></w:hyperlink></w:p>
    <w:sectPr/>
  </w:body>
</w:document>`
	path := writeDocx(t, dir, "kaideler.docx", doc)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Birinci paragraf\n\nSütun\tiki\nsatır\nbağlantı", got)
}

func TestLoad_DocxSkipsTextBoxParagraphs(t *testing.T) {
	dir := t.TempDir()
	doc := `<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:t>dış</w:t><w:pict><w:txbxContent><w:p><w:r><w:t>iç</w:t></w:r></w:p></w:txbxContent></w:pict></w:r><w:r><w:t> metin</w:t></w:r></w:p>
</w:body></w:document>`
	path := writeDocx(t, dir, "box.docx", doc)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dış metin", got)
}

func TestLoad_DocxWithoutDocumentPart(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := writeFile(t, dir, "empty.docx", buf.Bytes())

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestLoad_DocxNotZip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fake.docx", []byte("plain text"))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening DOCX")
}

// --- Truncate ---

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"equal", "abc", 3, "abc"},
		{"ascii", "abcdef", 4, "abcd"},
		{"multibyte", "çğıöşü", 3, "çğı"},
		{"arabic", "ابجد", 2, "اب"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

// --- Supported / Extensions ---

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.txt"))
	assert.True(t, Supported("a.PDF"))
	assert.True(t, Supported("dir/b.docx"))
	assert.False(t, Supported("a.md"))
	assert.False(t, Supported("a"))
	assert.Equal(t, []string{".docx", ".pdf", ".txt"}, Extensions())
}

// --- Stage ---

func TestStage(t *testing.T) {
	path, cleanup, err := Stage(strings.NewReader("referans"), "upload.TXT")
	require.NoError(t, err)

	assert.Equal(t, ".txt", filepath.Ext(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "referans", got)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup should remove the staged file")
	cleanup()
}

func TestStage_RejectsUnsupported(t *testing.T) {
	path, cleanup, err := Stage(strings.NewReader("# title"), "readme.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDocument))
	assert.Empty(t, path)
	assert.NotNil(t, cleanup)
	cleanup()
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage_ReadFailureRemovesFile(t *testing.T) {
	before, err := filepath.Glob(filepath.Join(os.TempDir(), "ottoman-kb-*.pdf"))
	require.NoError(t, err)

	_, _, err = Stage(failingReader{}, "book.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "ottoman-kb-*.pdf"))
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}
