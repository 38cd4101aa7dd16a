// Package extract derives raw text from uploaded document bytes. One
// adapter per mime type; the orchestrator decides which one to invoke and
// how to react to its outcome.
package extract

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Mime types the dispatch layer recognizes.
const (
	MimePDF       = "application/pdf"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePlainText = "text/plain"
)

// Error wraps an underlying parser failure for a specific format.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PlainText decodes data as UTF-8 text. Invalid byte sequences are fatal;
// there is no lossy fallback for plain text uploads.
func PlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &Error{Format: "text", Err: errors.New("invalid UTF-8 byte sequence")}
	}
	return string(data), nil
}
