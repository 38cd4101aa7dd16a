package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/casedesk/caseintake/internal/logger"
)

// DocxExtractor converts .docx archives to raw text, and separately to
// HTML. Cosmetic converter problems (malformed trailing markup, unknown
// styles) are logged as warnings and never fail the extraction.
type DocxExtractor struct {
	logger *logger.Logger
}

// NewDocxExtractor creates a DOCX extractor.
func NewDocxExtractor(log *logger.Logger) *DocxExtractor {
	if log == nil {
		log = logger.GetDefault()
	}
	return &DocxExtractor{logger: log}
}

// docxParagraph is one parsed paragraph with its heading level (0 = body).
type docxParagraph struct {
	text  string
	level int
}

// Extract returns the raw text of the document, one line per paragraph.
func (e *DocxExtractor) Extract(data []byte) (string, error) {
	paragraphs, err := e.parse(data)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, p.text)
	}
	return strings.Join(lines, "\n"), nil
}

// ExtractHTML renders the document as minimal HTML. This is an alternate
// output mode; the processing pipeline consumes raw text only.
func (e *DocxExtractor) ExtractHTML(data []byte) (string, error) {
	paragraphs, err := e.parse(data)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range paragraphs {
		escaped := html.EscapeString(p.text)
		if p.level > 0 {
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", p.level, escaped, p.level)
		} else {
			fmt.Fprintf(&sb, "<p>%s</p>\n", escaped)
		}
	}
	return sb.String(), nil
}

// parse reads word/document.xml out of the ZIP archive and walks its
// paragraph elements.
func (e *DocxExtractor) parse(data []byte) ([]docxParagraph, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Format: "docx", Err: fmt.Errorf("open archive: %w", err)}
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, &Error{Format: "docx", Err: errors.New("word/document.xml not found in archive")}
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, &Error{Format: "docx", Err: fmt.Errorf("open document.xml: %w", err)}
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []docxParagraph
	var current strings.Builder
	var inParagraph bool
	var style string

	for {
		tok, err := decoder.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// Degrade gracefully: keep what parsed cleanly.
				e.logger.WithError(err).Warn("docx converter warning: stopping at malformed XML token")
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				current.Reset()
				style = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				paragraphs = append(paragraphs, docxParagraph{
					text:  text,
					level: headingLevel(style),
				})
			}
		}
	}

	return paragraphs, nil
}

// headingLevel maps a paragraph style name to a heading level.
// "Heading1" => 1, "Title" => 1, "Subtitle" => 2, anything else => 0.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok {
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}
