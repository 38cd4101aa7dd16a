package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DetectorConfig holds configuration for the remote text-detection client.
type DetectorConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// RemoteDetector calls an HTTP text-detection capability. The document is
// shipped base64-encoded; the response carries structured blocks with
// per-block confidence.
type RemoteDetector struct {
	client   *resty.Client
	endpoint string
}

// NewRemoteDetector creates a remote detector client.
func NewRemoteDetector(cfg *DetectorConfig) *RemoteDetector {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	// Set timeout to prevent hanging requests
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	return &RemoteDetector{
		client:   client,
		endpoint: cfg.Endpoint,
	}
}

type detectRequest struct {
	Document detectDocument `json:"document"`
}

type detectDocument struct {
	ContentBase64 string `json:"content_base64"`
}

type detectResponse struct {
	Blocks []struct {
		Text       string  `json:"text"`
		BlockType  string  `json:"block_type"`
		Confidence float64 `json:"confidence"`
	} `json:"blocks"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// DetectDocumentText sends the document bytes to the remote capability and
// returns its structured blocks.
func (d *RemoteDetector) DetectDocumentText(ctx context.Context, data []byte) ([]Block, error) {
	req := detectRequest{
		Document: detectDocument{
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		},
	}

	var resp detectResponse
	httpResp, err := d.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(d.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call text detection API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("text detection API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("text detection API error: %s", resp.Error.Message)
	}

	blocks := make([]Block, 0, len(resp.Blocks))
	for _, b := range resp.Blocks {
		blocks = append(blocks, Block{
			Text:       b.Text,
			BlockType:  b.BlockType,
			Confidence: b.Confidence,
		})
	}
	return blocks, nil
}
