package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o"

	// Fixed generation constants; not caller-configurable.
	openAITemperature = 0.1
	openAIMaxTokens   = 4096

	// Character budget for document text embedded in analysis prompts.
	openAIDefaultMaxChars = 12000

	// The chat completions API reports no OCR confidence, so successful
	// extractions carry this adapter constant.
	openAIOCRConfidence = 0.9
)

// OpenAIConfig holds configuration for the OpenAI adapter.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional override (tests)
	Model      string
	MaxChars   int
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	HTTPClient *http.Client // optional (tests)
}

// OpenAIClient adapts the OpenAI vision chat API to the canonical OCR and
// analysis operations, using the official SDK. Retries live in the
// orchestrator, so SDK-level retries are disabled.
type OpenAIClient struct {
	apiKey   string
	model    string
	maxChars int
	limiter  *RateLimiter
	client   openai.Client
}

// NewOpenAIClient creates a new OpenAI adapter.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = openAIDefaultMaxChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		maxChars: cfg.MaxChars,
		limiter:  NewRateLimiter(cfg.RateLimit),
		client:   openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Capabilities returns the operations this adapter supports.
func (c *OpenAIClient) Capabilities() []Capability {
	return []Capability{CapabilityOCR, CapabilityAnalysis}
}

// HasCredential reports whether an API key is configured.
func (c *OpenAIClient) HasCredential() bool {
	return c.apiKey != ""
}

// Available checks credential presence and lists models as a cheap
// round-trip. Never returns an error.
func (c *OpenAIClient) Available(ctx context.Context) bool {
	if !c.HasCredential() {
		return false
	}
	_, err := c.client.Models.List(ctx)
	return err == nil
}

// ExtractText runs vision OCR on a data URI image.
func (c *OpenAIClient) ExtractText(ctx context.Context, imageDataURI string) (*RawOCR, error) {
	start := time.Now()

	if _, err := ParseDataURI(imageDataURI); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(openAITemperature),
		MaxTokens:   openai.Int(openAIMaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(ocrPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageDataURI,
				}),
			}),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewError(KindInvalidUpstreamResponse, OpenAIName, "no choices in response")
	}

	return &RawOCR{
		Text:       resp.Choices[0].Message.Content,
		Confidence: openAIOCRConfidence,
		Provider:   OpenAIName,
		ModelUsed:  resp.Model,
		Duration:   time.Since(start),
	}, nil
}

// AnalyzeDocument extracts structured data from document text.
func (c *OpenAIClient) AnalyzeDocument(ctx context.Context, text string) (*RawAnalysis, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, InvalidInput("document text is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(openAITemperature),
		MaxTokens:   openai.Int(openAIMaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(AnalysisPrompt(text, c.maxChars)),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewError(KindInvalidUpstreamResponse, OpenAIName, "no choices in response")
	}

	return &RawAnalysis{
		Content:   resp.Choices[0].Message.Content,
		Provider:  OpenAIName,
		ModelUsed: resp.Model,
		Duration:  time.Since(start),
	}, nil
}

// mapError converts SDK errors onto the shared taxonomy. Non-API errors
// (network faults, timeouts) pass through and classify as transient.
func (c *OpenAIClient) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return FromStatus(OpenAIName, apiErr.StatusCode, apiErr.Message)
	}
	return err
}

// Verify interfaces
var (
	_ OCRProvider      = (*OpenAIClient)(nil)
	_ AnalysisProvider = (*OpenAIClient)(nil)
)
