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
	AnthropicName       = "anthropic"
	AnthropicBaseURL    = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"

	anthropicDefaultModel = "claude-3-5-sonnet-latest"

	anthropicTemperature = 0.0
	anthropicMaxTokens   = 4096

	anthropicDefaultMaxChars = 16000

	// Messages responses carry no OCR confidence; use the adapter constant.
	anthropicOCRConfidence = 0.88
)

// AnthropicConfig holds configuration for the Anthropic adapter.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxChars   int
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	HTTPClient *http.Client // optional (tests)
}

// AnthropicClient adapts the Anthropic messages API to the canonical OCR
// and analysis operations. Responses carry a content array whose text
// blocks are concatenated into the raw result.
type AnthropicClient struct {
	apiKey   string
	baseURL  string
	model    string
	maxChars int
	limiter  *RateLimiter
	client   *http.Client
}

// NewAnthropicClient creates a new Anthropic adapter.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = AnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = anthropicDefaultMaxChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &AnthropicClient{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		model:    cfg.Model,
		maxChars: cfg.MaxChars,
		limiter:  NewRateLimiter(cfg.RateLimit),
		client:   httpClient,
	}
}

// Name returns the provider identifier.
func (c *AnthropicClient) Name() string {
	return AnthropicName
}

// Capabilities returns the operations this adapter supports.
func (c *AnthropicClient) Capabilities() []Capability {
	return []Capability{CapabilityAnalysis, CapabilityOCR}
}

// HasCredential reports whether an API key is configured.
func (c *AnthropicClient) HasCredential() bool {
	return c.apiKey != ""
}

// Available checks credential presence and hits the models endpoint as a
// cheap round-trip. Never returns an error.
func (c *AnthropicClient) Available(ctx context.Context) bool {
	if !c.HasCredential() {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ExtractText runs vision OCR on a data URI image.
func (c *AnthropicClient) ExtractText(ctx context.Context, imageDataURI string) (*RawOCR, error) {
	start := time.Now()

	uri, err := ParseDataURI(imageDataURI)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropicTemperature,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContent{
					{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: uri.MIME,
							Data:      uri.Payload,
						},
					},
					{Type: "text", Text: ocrPrompt},
				},
			},
		},
	}

	resp, err := c.doRequest(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	text, err := c.joinTextBlocks(resp)
	if err != nil {
		return nil, err
	}

	return &RawOCR{
		Text:       text,
		Confidence: anthropicOCRConfidence,
		Provider:   AnthropicName,
		ModelUsed:  resp.Model,
		Duration:   time.Since(start),
	}, nil
}

// AnalyzeDocument extracts structured data from document text.
func (c *AnthropicClient) AnalyzeDocument(ctx context.Context, text string) (*RawAnalysis, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, InvalidInput("document text is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropicTemperature,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContent{
					{Type: "text", Text: AnalysisPrompt(text, c.maxChars)},
				},
			},
		},
	}

	resp, err := c.doRequest(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	content, err := c.joinTextBlocks(resp)
	if err != nil {
		return nil, err
	}

	return &RawAnalysis{
		Content:   content,
		Provider:  AnthropicName,
		ModelUsed: resp.Model,
		Duration:  time.Since(start),
	}, nil
}

// doRequest posts to the messages endpoint and maps non-2xx responses
// onto the shared taxonomy.
func (c *AnthropicClient) doRequest(ctx context.Context, body anthropicRequest) (*anthropicResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, FromStatus(AnthropicName, resp.StatusCode, errResp.Error.Message)
		}
		return nil, FromStatus(AnthropicName, resp.StatusCode, string(respBody))
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, WrapError(KindInvalidUpstreamResponse, AnthropicName, err)
	}

	return &msgResp, nil
}

func (c *AnthropicClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// joinTextBlocks concatenates the text blocks of a content array.
func (c *AnthropicClient) joinTextBlocks(resp *anthropicResponse) (string, error) {
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", NewError(KindInvalidUpstreamResponse, AnthropicName, "no text blocks in response")
	}
	return strings.Join(parts, "\n"), nil
}

// Anthropic API types

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify interfaces
var (
	_ OCRProvider      = (*AnthropicClient)(nil)
	_ AnalysisProvider = (*AnthropicClient)(nil)
)
