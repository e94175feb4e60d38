package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kielo-labs/kielo/internal/config"
)

// Captioner describes an image through a replicate-style prediction
// endpoint.
type Captioner struct {
	cfg    config.VisionConfig
	client *http.Client
}

// NewCaptioner creates the caption client from configuration.
func NewCaptioner(cfg config.VisionConfig) *Captioner {
	return &Captioner{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type captionRequest struct {
	Model string `json:"model"`
	Image string `json:"image"`
}

type captionResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Caption submits the image bytes and returns the generated caption.
func (c *Captioner) Caption(ctx context.Context, image []byte) (string, error) {
	if c.cfg.CaptionURL == "" {
		return "", fmt.Errorf("caption service not configured")
	}
	if len(image) == 0 {
		return "", fmt.Errorf("empty image payload")
	}

	payload, err := json.Marshal(captionRequest{
		Model: c.cfg.CaptionModel,
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CaptionURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("caption service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed captionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("malformed caption response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("caption service error: %s", parsed.Error)
	}
	if parsed.Output == "" {
		return "", fmt.Errorf("caption response contained no output")
	}

	return parsed.Output, nil
}
