package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterDefaultModel = "google/gemini-2.0-flash-001"

	openRouterTemperature = 0.1
	openRouterMaxTokens   = 4096

	openRouterDefaultMaxChars = 12000

	// Last-resort provider; its models report no OCR confidence.
	openRouterOCRConfidence = 0.8
)

// OpenRouterConfig holds configuration for the OpenRouter adapter.
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxChars   int
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	HTTPClient *http.Client // optional (tests)
}

// OpenRouterClient adapts OpenRouter's chat-completions API to the
// canonical OCR and analysis operations. It is the last-resort fallback,
// so it supports both capabilities.
type OpenRouterClient struct {
	apiKey   string
	baseURL  string
	model    string
	maxChars int
	limiter  *RateLimiter
	client   *http.Client
}

// NewOpenRouterClient creates a new OpenRouter adapter.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openRouterDefaultModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = openRouterDefaultMaxChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenRouterClient{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		model:    cfg.Model,
		maxChars: cfg.MaxChars,
		limiter:  NewRateLimiter(cfg.RateLimit),
		client:   httpClient,
	}
}

// Name returns the provider identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Capabilities returns the operations this adapter supports.
func (c *OpenRouterClient) Capabilities() []Capability {
	return []Capability{CapabilityOCR, CapabilityAnalysis}
}

// HasCredential reports whether an API key is configured.
func (c *OpenRouterClient) HasCredential() bool {
	return c.apiKey != ""
}

// Available checks credential presence and lists models as a cheap
// round-trip. Never returns an error.
func (c *OpenRouterClient) Available(ctx context.Context) bool {
	if !c.HasCredential() {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ExtractText runs vision OCR on a data URI image. OpenRouter accepts the
// data URI directly as an image_url content part.
func (c *OpenRouterClient) ExtractText(ctx context.Context, imageDataURI string) (*RawOCR, error) {
	start := time.Now()

	if _, err := ParseDataURI(imageDataURI); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{
				Role: "user",
				Content: []openRouterContent{
					{Type: "text", Text: ocrPrompt},
					{Type: "image_url", ImageURL: &openRouterImageURL{URL: imageDataURI}},
				},
			},
		},
		Temperature: openRouterTemperature,
		MaxTokens:   openRouterMaxTokens,
	}

	content, model, err := c.doChat(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	return &RawOCR{
		Text:       content,
		Confidence: openRouterOCRConfidence,
		Provider:   OpenRouterName,
		ModelUsed:  model,
		Duration:   time.Since(start),
	}, nil
}

// AnalyzeDocument extracts structured data from document text.
func (c *OpenRouterClient) AnalyzeDocument(ctx context.Context, text string) (*RawAnalysis, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, InvalidInput("document text is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{
				Role: "user",
				Content: []openRouterContent{
					{Type: "text", Text: AnalysisPrompt(text, c.maxChars)},
				},
			},
		},
		Temperature: openRouterTemperature,
		MaxTokens:   openRouterMaxTokens,
	}

	content, model, err := c.doChat(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	return &RawAnalysis{
		Content:   content,
		Provider:  OpenRouterName,
		ModelUsed: model,
		Duration:  time.Since(start),
	}, nil
}

// doChat posts a chat completion and returns the first choice's content.
func (c *OpenRouterClient) doChat(ctx context.Context, body openRouterRequest) (string, string, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openRouterErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return "", "", FromStatus(OpenRouterName, resp.StatusCode, errResp.Error.Message)
		}
		return "", "", FromStatus(OpenRouterName, resp.StatusCode, string(respBody))
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return "", "", WrapError(KindInvalidUpstreamResponse, OpenRouterName, err)
	}
	if len(orResp.Choices) == 0 {
		return "", "", NewError(KindInvalidUpstreamResponse, OpenRouterName, "no choices in response")
	}

	return orResp.Choices[0].Message.Content, orResp.Model, nil
}

// OpenRouter API types

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterMessage struct {
	Role    string              `json:"role"`
	Content []openRouterContent `json:"content"`
}

type openRouterContent struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ImageURL *openRouterImageURL `json:"image_url,omitempty"`
}

type openRouterImageURL struct {
	URL string `json:"url"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openRouterErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify interfaces
var (
	_ OCRProvider      = (*OpenRouterClient)(nil)
	_ AnalysisProvider = (*OpenRouterClient)(nil)
)
