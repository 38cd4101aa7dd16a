package extract

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// scannedCharsPerPage is the threshold below which a PDF is treated as a
// scan. Legitimate short PDFs under 100 chars/page are rare relative to the
// cost of missing a scanned document, so the bias runs toward false
// positives (extra OCR) rather than silently returning near-empty text.
const scannedCharsPerPage = 100

// PDFExtractor parses PDF files with pdfcpu and pulls text out of page
// content streams.
type PDFExtractor struct {
	conf *model.Configuration
}

// NewPDFExtractor creates a PDF extractor with default pdfcpu configuration.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{conf: model.NewDefaultConfiguration()}
}

// Extract returns the full text of the PDF and its page count.
func (e *PDFExtractor) Extract(data []byte) (string, int, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.conf)
	if err != nil {
		return "", 0, &Error{Format: "pdf", Err: err}
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		txt := pageText(ctx, pageNr)
		if txt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(txt)
	}

	return sb.String(), ctx.PageCount, nil
}

// ExtractWithScanCheck parses the document once and returns both the
// embedded text and the scanned classification, so dispatch does not pay
// for a second parse.
//
// Parse failure => assume scanned: bytes that cannot even be parsed for
// text almost certainly need OCR, so the error is not propagated here.
func (e *PDFExtractor) ExtractWithScanCheck(data []byte) (string, int, bool) {
	text, pages, err := e.Extract(data)
	if err != nil {
		return "", 0, true
	}
	return text, pages, isLikelyScanned(len([]rune(text)), pages)
}

// IsLikelyScanned reports whether the PDF is probably a scan that needs OCR
// rather than direct text extraction.
func (e *PDFExtractor) IsLikelyScanned(data []byte) bool {
	_, _, scanned := e.ExtractWithScanCheck(data)
	return scanned
}

// isLikelyScanned applies the chars-per-page heuristic in isolation.
func isLikelyScanned(charCount, pageCount int) bool {
	if pageCount == 0 {
		return true
	}
	return float64(charCount)/float64(pageCount) < scannedCharsPerPage
}

// pageText extracts the text of one page from its content stream. Per-page
// failures yield an empty page, not an error; the document-level parse has
// already succeeded at this point.
func pageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks content stream operators and collects the
// text-showing ones (Tj, TJ, ') plus positioning operators that imply
// whitespace (Td, TD, T*).
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeStringLiterals(&sb, line, false)

		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			writeStringLiterals(&sb, line, true)

		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}

		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return normalizeWhitespace(sb.String())
}

func writeStringLiterals(sb *strings.Builder, line []byte, newlineFirst bool) {
	for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
		text := decodePDFString(m[1])
		if text == "" {
			continue
		}
		if newlineFirst {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
}

// decodePDFString handles the basic PDF escape sequences, including octal
// escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for d := 0; d < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; d++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

func normalizeWhitespace(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
