package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/customHttpClient"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/pkg/logger_i"
	"google.golang.org/genai"
)

const providerName = "gemini"

var errNoImage = errors.New("response contained no image data")

type Client struct {
	client     *genai.Client
	uploadsDir string
	attempts   int
	retryDelay time.Duration
	logger     *logger_i.Logger
}

// NewClient returns nil when no API key is configured so callers can treat the
// multimodal provider as absent.
func NewClient(ctx context.Context, apiKey string, uploadsDir string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.NewClient(config.LLMRequestTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created")
	return &Client{
		client:     c,
		uploadsDir: uploadsDir,
		attempts:   config.ImageRetryAttempts,
		retryDelay: config.ImageRetryDelay,
		logger:     logger,
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string, model string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics(metrics.MultimodalProvider, time.Since(start))
	}()

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		c.logger.FromContext(ctx).Error("gemini text generation failed", "model", model, "error", err)
		return "", errorModel.ProviderFailure(providerName, err)
	}
	text := result.Text()
	if text == "" {
		return "", errorModel.ProviderFailure(providerName, fmt.Errorf("empty response from %s", model))
	}
	return text, nil
}

// GenerateImage asks the model for an image and saves it under the uploads
// directory, retrying a few times since image models fail intermittently.
func (c *Client) GenerateImage(ctx context.Context, model string, prompt string) (string, error) {
	logger := c.logger.FromContext(ctx)
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		start := time.Now()
		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		metrics.CaptureExecutionMetrics(metrics.MultimodalProvider, time.Since(start))
		if err == nil {
			var path string
			path, err = saveImage(result, c.uploadsDir, time.Now())
			if err == nil {
				logger.Info("image saved", "path", path, "attempt", attempt)
				return path, nil
			}
		}

		lastErr = err
		logger.Error("image generation attempt failed", "attempt", attempt, "model", model, "error", err)
		if attempt < c.attempts {
			select {
			case <-ctx.Done():
				return "", errorModel.ProviderFailure(providerName, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
	}
	return "", errorModel.ProviderFailure(providerName,
		fmt.Errorf("failed to generate image after %d attempts: %w", c.attempts, lastErr))
}

// saveImage writes the first inline image part of the response to dir.
func saveImage(result *genai.GenerateContentResponse, dir string, now time.Time) (string, error) {
	if result == nil {
		return "", errNoImage
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
			path := filepath.Join(dir, fmt.Sprintf("infograph_%d%s", now.UnixMilli(), extension(part.InlineData.MIMEType)))
			if err := os.WriteFile(path, part.InlineData.Data, 0o644); err != nil {
				return "", err
			}
			return path, nil
		}
	}
	return "", errNoImage
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
