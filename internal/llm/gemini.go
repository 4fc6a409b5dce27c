package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the Gemini provider.
const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel      = "gemini-1.5-flash-latest"
	defaultGeminiRetryDelay = 2 * time.Second
)

// generateRequest represents the Gemini generateContent API request body.
type generateRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is either a text part or an inline binary part.
type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

// generateResponse represents the Gemini generateContent API response body.
type generateResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiErrorResponse struct {
	Error geminiErrorDetail `json:"error"`
}

type geminiErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GeminiClient implements Completer and DocumentCompleter using the Gemini
// generateContent API. Documents are sent inline as base64 data parts.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     func() string
	model      string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// GeminiConfig holds the parameters needed to create a Gemini client.
type GeminiConfig struct {
	// APIKey returns the current API key. A function is used so that keys
	// saved at runtime take effect without a restart.
	APIKey func() string
	// Model is the model identifier (e.g., "gemini-1.5-flash-latest").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// NewGeminiClient creates a Gemini completion client. Transient API errors
// (5xx and 429) are retried up to maxRetries times.
func NewGeminiClient(cfg GeminiConfig, timeout time.Duration, maxRetries int) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	keyFn := cfg.APIKey
	if keyFn == nil {
		keyFn = func() string { return "" }
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:     keyFn,
		model:      model,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		retryDelay: defaultGeminiRetryDelay,
	}
}

// Complete sends a text-only generation request.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	return c.generate(ctx, req, parts)
}

// CompleteWithDocument sends a generation request with an inline document
// part alongside the prompt. This is how PDF papers are fed to the model.
func (c *GeminiClient) CompleteWithDocument(ctx context.Context, req Request, doc Document) (*Response, error) {
	parts := []geminiPart{
		{Text: req.Prompt},
		{InlineData: &inlineData{
			MIMEType: doc.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(doc.Data),
		}},
	}
	return c.generate(ctx, req, parts)
}

// Provider returns the name of the LLM provider.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Model returns the model identifier being used.
func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) generate(ctx context.Context, req Request, parts []geminiPart) (*Response, error) {
	genReq := generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		genReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONMode {
		genReq.GenerationConfig.ResponseMIMEType = "application/json"
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("gemini: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := c.doRequest(ctx, genReq)
		if err == nil {
			return result, nil
		}

		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("gemini: exhausted %d retries: %w", c.maxRetries, lastErr)
}

func (c *GeminiClient) doRequest(ctx context.Context, genReq generateRequest) (*Response, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseGeminiAPIError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates in response")
	}

	var text string
	for _, part := range genResp.Candidates[0].Content.Parts {
		text += part.Text
	}

	return &Response{
		Content:      text,
		InputTokens:  genResp.UsageMetadata.PromptTokenCount,
		OutputTokens: genResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func parseGeminiAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "gemini",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp geminiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Status
	}

	return apiErr
}
