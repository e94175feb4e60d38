package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kielo-labs/kielo/internal/config"
	"github.com/kielo-labs/kielo/internal/model/convo"
)

// ImageGenerator turns a text prompt into an image via a replicate-style
// prediction endpoint.
type ImageGenerator struct {
	cfg    config.VisionConfig
	client *http.Client
}

// NewImageGenerator creates the generation client from configuration.
func NewImageGenerator(cfg config.VisionConfig) *ImageGenerator {
	return &ImageGenerator{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type imageGenRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type imageGenResponse struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// Generate returns a reference to the generated image. The service
// responds with URLs; the transport forwards them as-is.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) (convo.Image, error) {
	if g.cfg.ImageGenURL == "" {
		return convo.Image{}, fmt.Errorf("image generation service not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return convo.Image{}, fmt.Errorf("empty image prompt")
	}

	payload, err := json.Marshal(imageGenRequest{
		Model:  g.cfg.ImageGenModel,
		Prompt: prompt,
	})
	if err != nil {
		return convo.Image{}, fmt.Errorf("failed to build image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ImageGenURL, bytes.NewReader(payload))
	if err != nil {
		return convo.Image{}, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return convo.Image{}, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return convo.Image{}, fmt.Errorf("image service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed imageGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return convo.Image{}, fmt.Errorf("malformed image response: %w", err)
	}
	if parsed.Error != "" {
		return convo.Image{}, fmt.Errorf("image service error: %s", parsed.Error)
	}
	if len(parsed.Output) == 0 || parsed.Output[0] == "" {
		return convo.Image{}, fmt.Errorf("image response contained no output")
	}

	return convo.Image{URL: parsed.Output[0]}, nil
}
