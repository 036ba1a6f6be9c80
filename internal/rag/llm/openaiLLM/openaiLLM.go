package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/customHttpClient"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

type Client struct {
	client    openai.Client
	modelName string
	logger    *logger_i.Logger
}

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient builds the chat-completions client. It also serves any
// OpenAI-compatible endpoint, Ollama included, through BaseURL.
func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = config.DefaultOpenAIModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.LLMRequestTimeout
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		// ollama ignores the key but the SDK insists on one
		apiKey = "ollama"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(config.LLMMaxRetries),
		option.WithRequestTimeout(opts.Timeout),
		option.WithHTTPClient(customHttpClient.NewClient(0)),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", opts.Model, "baseUrl", opts.BaseURL)
	return &Client{
		client:    openai.NewClient(reqOpts...),
		modelName: opts.Model,
		logger:    logger,
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	logger := c.logger.FromContext(ctx)
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics(metrics.PrimaryProvider, time.Since(start))
	}()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Error("LLM generation failed", "model", c.modelName, "status", apiErr.StatusCode, "error", err)
		} else {
			logger.Error("LLM generation failed", "model", c.modelName, "error", err)
		}
		return "", errorModel.ProviderFailure(providerName, err)
	}
	if len(resp.Choices) == 0 {
		logger.Error("LLM returned no choices", "model", c.modelName)
		return "", errorModel.ProviderFailure(providerName, fmt.Errorf("empty response from %s", c.modelName))
	}

	logger.Debug("LLM generation complete", "model", c.modelName, "duration", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}
