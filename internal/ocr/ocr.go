// Package ocr wraps a remote text-detection capability and exposes the
// fallback chain contract the processing pipeline relies on. The package
// does not perform recognition itself on the primary path; it gates
// eligibility, invokes the detector, aggregates line confidence, and
// optionally falls back to a local engine.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casedesk/caseintake/internal/logger"
)

// BlockTypeLine is the block granularity the adapter consumes; everything
// else the capability returns (pages, words) is filtered out.
const BlockTypeLine = "LINE"

// Block is one structured element returned by the text-detection capability.
type Block struct {
	Text       string
	BlockType  string
	Confidence float64
}

// TextDetector is the remote OCR capability consumed by the adapter.
type TextDetector interface {
	DetectDocumentText(ctx context.Context, data []byte) ([]Block, error)
}

// FallbackEngine is a local OCR engine used when the primary detector fails.
type FallbackEngine interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// Result is the aggregated outcome of one OCR pass.
type Result struct {
	Text            string
	Confidence      float64
	LineConfidences []float64
}

// UnsupportedTypeError rejects a mime type at the OCR-eligibility gate.
// It maps to a 400-class response at the API boundary.
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("mime type %q is not OCR-eligible", e.MimeType)
}

// UnavailableError indicates the primary OCR capability failed and no
// fallback engine could take over. It is deliberately distinct from a
// generic extraction failure so the gap stays visible.
type UnavailableError struct {
	Err                error
	FallbackConfigured bool
}

func (e *UnavailableError) Error() string {
	if e.FallbackConfigured {
		return fmt.Sprintf("primary OCR unavailable and fallback engine failed: %v", e.Err)
	}
	return fmt.Sprintf("primary OCR unavailable and no fallback engine configured: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ocrEligible is the allow-list of mime types the OCR path accepts.
var ocrEligible = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"application/pdf": true,
}

// IsOCRCandidate reports whether the mime type is OCR-eligible.
func IsOCRCandidate(mimeType string) bool {
	return ocrEligible[mimeType]
}

// Adapter ties the remote detector and the optional local fallback into a
// single extraction entry point.
type Adapter struct {
	detector TextDetector
	fallback FallbackEngine
	logger   *logger.Logger
}

// NewAdapter creates an OCR adapter. fallback may be nil, in which case a
// primary failure surfaces as UnavailableError.
func NewAdapter(detector TextDetector, fallback FallbackEngine, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Adapter{
		detector: detector,
		fallback: fallback,
		logger:   log,
	}
}

// DetectText runs the primary detector and aggregates its line-level
// output: lines joined with newline, confidence as the arithmetic mean of
// per-line scores. Zero detected lines means confidence 0, not an error.
func (a *Adapter) DetectText(ctx context.Context, data []byte) (*Result, error) {
	blocks, err := a.detector.DetectDocumentText(ctx, data)
	if err != nil {
		return nil, err
	}

	var lines []string
	var confidences []float64
	for _, b := range blocks {
		if b.BlockType != BlockTypeLine {
			continue
		}
		lines = append(lines, b.Text)
		confidences = append(confidences, b.Confidence)
	}

	return &Result{
		Text:            strings.Join(lines, "\n"),
		Confidence:      meanConfidence(confidences),
		LineConfidences: confidences,
	}, nil
}

// ExtractWithFallback gates on OCR eligibility, runs the primary detector,
// and on failure hands the bytes to the local fallback engine when one is
// configured.
func (a *Adapter) ExtractWithFallback(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	if !IsOCRCandidate(mimeType) {
		return nil, &UnsupportedTypeError{MimeType: mimeType}
	}

	result, primaryErr := a.DetectText(ctx, data)
	if primaryErr == nil {
		return result, nil
	}

	if a.fallback == nil {
		return nil, &UnavailableError{Err: primaryErr}
	}

	a.logger.WithError(primaryErr).Warn("Primary OCR failed, trying local fallback engine")

	text, fallbackErr := a.fallback.Recognize(ctx, data)
	if fallbackErr != nil {
		return nil, &UnavailableError{
			Err:                errors.Join(primaryErr, fallbackErr),
			FallbackConfigured: true,
		}
	}

	// The local engine reports no per-line confidence.
	return &Result{Text: text}, nil
}

func meanConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}
