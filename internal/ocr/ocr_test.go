package ocr

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeDetector struct {
	blocks []Block
	err    error
}

func (f *fakeDetector) DetectDocumentText(ctx context.Context, data []byte) ([]Block, error) {
	return f.blocks, f.err
}

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Recognize(ctx context.Context, data []byte) (string, error) {
	return f.text, f.err
}

func TestIsOCRCandidate(t *testing.T) {
	testCases := []struct {
		mimeType string
		want     bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/tiff", true},
		{"application/pdf", true},
		{"application/msword", false},
		{"text/plain", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := IsOCRCandidate(tc.mimeType); got != tc.want {
			t.Errorf("IsOCRCandidate(%q) = %v, want %v", tc.mimeType, got, tc.want)
		}
	}
}

func TestDetectTextFiltersAndAggregates(t *testing.T) {
	detector := &fakeDetector{blocks: []Block{
		{Text: "ignored page block", BlockType: "PAGE", Confidence: 0.1},
		{Text: "first line", BlockType: BlockTypeLine, Confidence: 0.8},
		{Text: "ignored word", BlockType: "WORD", Confidence: 0.2},
		{Text: "second line", BlockType: BlockTypeLine, Confidence: 0.6},
	}}
	a := NewAdapter(detector, nil, nil)

	result, err := a.DetectText(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("DetectText: %v", err)
	}
	if result.Text != "first line\nsecond line" {
		t.Errorf("Text = %q", result.Text)
	}
	if math.Abs(result.Confidence-0.7) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.7", result.Confidence)
	}
	if len(result.LineConfidences) != 2 {
		t.Errorf("LineConfidences = %v, want 2 entries", result.LineConfidences)
	}
}

func TestDetectTextZeroLines(t *testing.T) {
	a := NewAdapter(&fakeDetector{blocks: nil}, nil, nil)

	result, err := a.DetectText(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("DetectText: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
	// Zero detected lines is confidence 0, never NaN and never an error.
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", result.Confidence)
	}
	if math.IsNaN(result.Confidence) {
		t.Error("Confidence is NaN")
	}
}

func TestExtractWithFallbackGate(t *testing.T) {
	a := NewAdapter(&fakeDetector{}, nil, nil)

	_, err := a.ExtractWithFallback(context.Background(), []byte("doc"), "application/msword")
	var unsupported *UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
	if unsupported.MimeType != "application/msword" {
		t.Errorf("MimeType = %q", unsupported.MimeType)
	}
}

func TestExtractWithFallbackNoEngineConfigured(t *testing.T) {
	primaryErr := errors.New("capability down")
	a := NewAdapter(&fakeDetector{err: primaryErr}, nil, nil)

	_, err := a.ExtractWithFallback(context.Background(), []byte("img"), "image/png")
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if unavailable.FallbackConfigured {
		t.Error("FallbackConfigured should be false")
	}
	if !errors.Is(err, primaryErr) {
		t.Error("UnavailableError should wrap the primary failure")
	}
}

func TestExtractWithFallbackEngineSucceeds(t *testing.T) {
	a := NewAdapter(
		&fakeDetector{err: errors.New("capability down")},
		&fakeEngine{text: "recovered text"},
		nil,
	)

	result, err := a.ExtractWithFallback(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("ExtractWithFallback: %v", err)
	}
	if result.Text != "recovered text" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Confidence != 0 || result.LineConfidences != nil {
		t.Error("local fallback must not fabricate confidence scores")
	}
}

func TestExtractWithFallbackEngineFails(t *testing.T) {
	a := NewAdapter(
		&fakeDetector{err: errors.New("capability down")},
		&fakeEngine{err: errors.New("tesseract missing")},
		nil,
	)

	_, err := a.ExtractWithFallback(context.Background(), []byte("img"), "image/png")
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if !unavailable.FallbackConfigured {
		t.Error("FallbackConfigured should be true")
	}
}

func TestExtractWithFallbackPrimarySucceeds(t *testing.T) {
	a := NewAdapter(
		&fakeDetector{blocks: []Block{{Text: "hello", BlockType: BlockTypeLine, Confidence: 0.9}}},
		&fakeEngine{text: "should not be used"},
		nil,
	)

	result, err := a.ExtractWithFallback(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("ExtractWithFallback: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q", result.Text)
	}
}
