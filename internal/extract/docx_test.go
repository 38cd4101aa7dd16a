package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildDocx assembles an in-memory .docx archive around the given
// word/document.xml body.
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Settlement Agreement</w:t></w:r></w:p>
    <w:p><w:r><w:t>This agreement is made between the parties.</w:t></w:r></w:p>
    <w:p><w:r><w:t></w:t></w:r></w:p>
    <w:p><w:r><w:t>Signed on the date below.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxExtract(t *testing.T) {
	data := buildDocx(t, sampleDocumentXML)
	e := NewDocxExtractor(nil)

	text, err := e.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := "Settlement Agreement\nThis agreement is made between the parties.\nSigned on the date below."
	if text != want {
		t.Errorf("Extract = %q, want %q", text, want)
	}
}

func TestDocxExtractHTML(t *testing.T) {
	data := buildDocx(t, sampleDocumentXML)
	e := NewDocxExtractor(nil)

	out, err := e.ExtractHTML(data)
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if !strings.Contains(out, "<h1>Settlement Agreement</h1>") {
		t.Errorf("missing heading markup in %q", out)
	}
	if !strings.Contains(out, "<p>This agreement is made between the parties.</p>") {
		t.Errorf("missing paragraph markup in %q", out)
	}
}

func TestDocxExtractNotAnArchive(t *testing.T) {
	e := NewDocxExtractor(nil)
	_, err := e.Extract([]byte("plain bytes, not a zip"))
	if err == nil {
		t.Fatal("expected error")
	}
	var extErr *Error
	if !errors.As(err, &extErr) || extErr.Format != "docx" {
		t.Errorf("expected docx extract.Error, got %v", err)
	}
}

func TestDocxExtractMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	e := NewDocxExtractor(nil)
	if _, err := e.Extract(buf.Bytes()); err == nil {
		t.Fatal("expected error for archive without word/document.xml")
	}
}

func TestDocxTruncatedXMLDegradesGracefully(t *testing.T) {
	// Second paragraph's markup is cut off mid-element; the converter
	// should keep the first paragraph and warn, not fail.
	truncated := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Intact paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Cut off`
	data := buildDocx(t, truncated)

	e := NewDocxExtractor(nil)
	text, err := e.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Intact paragraph." {
		t.Errorf("Extract = %q, want %q", text, "Intact paragraph.")
	}
}

func TestHeadingLevel(t *testing.T) {
	testCases := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading3", 3},
		{"Title", 1},
		{"Subtitle", 2},
		{"BodyText", 0},
		{"", 0},
		{"Heading9", 0},
	}
	for _, tc := range testCases {
		if got := headingLevel(tc.style); got != tc.want {
			t.Errorf("headingLevel(%q) = %d, want %d", tc.style, got, tc.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	text, err := PlainText([]byte("Hello"))
	if err != nil {
		t.Fatalf("PlainText: %v", err)
	}
	if text != "Hello" {
		t.Errorf("PlainText = %q, want Hello", text)
	}

	if _, err := PlainText([]byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}
