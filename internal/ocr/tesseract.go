package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine is the local OCR fallback, backed by a tesseract
// installation via gosseract. It is optional and disabled by default; when
// absent, a primary OCR failure surfaces as UnavailableError.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates a local tesseract engine. languages are
// tesseract language codes ("eng", "deu", ...); empty means the tesseract
// default.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{languages: languages}
}

// Recognize runs tesseract over the image bytes and returns the recognized
// text. Recognition is synchronous; the context is only consulted before
// starting.
func (e *TesseractEngine) Recognize(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("tesseract set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}
