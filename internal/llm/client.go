// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/buildloom/loom-backend/internal/blueprint"
	"github.com/buildloom/loom-backend/internal/logger"
)

var customLog = logger.NewLogger()

// Specific errors for LLM interaction
var (
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
)

// Result carries one completion round: the extracted blueprint bytes plus
// the full request/response payloads for the audit trail.
type Result struct {
	Blueprint []byte
	Request   json.RawMessage
	Response  json.RawMessage
}

// Client produces blueprint documents from natural-language prompts.
type Client interface {
	GenerateBlueprint(ctx context.Context, prompt string, version blueprint.Version, model string) (*Result, error)
	RepairBlueprint(ctx context.Context, originalPrompt string, invalidJSON []byte, validationErrors []string, version blueprint.Version, model string) (*Result, error)
}

// HTTPClient talks to an OpenRouter-compatible chat completions API.
type HTTPClient struct {
	baseURL      string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

// NewHTTPClient builds a client for the given endpoint. Timeout bounds a
// single completion round trip.
func NewHTTPClient(baseURL, apiKey, defaultModel string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// GenerateBlueprint asks the model for a fresh blueprint document.
func (c *HTTPClient) GenerateBlueprint(ctx context.Context, prompt string, version blueprint.Version, model string) (*Result, error) {
	req := chatRequest{
		Model: c.resolveModel(model),
		Messages: []chatMessage{
			{Role: "system", Content: systemPromptFor(version)},
			{Role: "user", Content: fmt.Sprintf("Create a business application for: %s", prompt)},
		},
		Temperature: 0.7,
		MaxTokens:   8000,
	}
	return c.complete(ctx, req)
}

// RepairBlueprint sends an invalid document back with its validation
// errors for one correction attempt.
func (c *HTTPClient) RepairBlueprint(ctx context.Context, originalPrompt string, invalidJSON []byte, validationErrors []string, version blueprint.Version, model string) (*Result, error) {
	repairPrompt := fmt.Sprintf(`The previous blueprint generation had validation errors. Please fix them.

Original request: %s

Invalid JSON:
%s

Validation errors:
%s

Return ONLY the corrected valid JSON. No explanations.`, originalPrompt, invalidJSON, strings.Join(validationErrors, "\n"))

	req := chatRequest{
		Model: c.resolveModel(model),
		Messages: []chatMessage{
			{Role: "system", Content: systemPromptFor(version)},
			{Role: "user", Content: repairPrompt},
		},
		// Lower temperature for repairs
		Temperature: 0.3,
		MaxTokens:   8000,
	}
	return c.complete(ctx, req)
}

func (c *HTTPClient) complete(ctx context.Context, req chatRequest) (*Result, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode llm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build llm request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", "Loom")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		customLog.Warnf("LLM: Completion request failed: %v", err)
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read llm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		customLog.Warnf("LLM: Completion returned status %d: %s", resp.StatusCode, truncateForLog(responseBody))
		return nil, fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	content := gjson.GetBytes(responseBody, "choices.0.message.content").String()
	if content == "" {
		return nil, ErrEmptyCompletion
	}

	return &Result{
		Blueprint: []byte(stripCodeFence(content)),
		Request:   requestBody,
		Response:  responseBody,
	}, nil
}

func (c *HTTPClient) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return c.defaultModel
}

func systemPromptFor(version blueprint.Version) string {
	if version == blueprint.V3 {
		return blueprintV3SystemPrompt
	}
	return blueprintV2SystemPrompt
}

// stripCodeFence removes a surrounding markdown code block, which models
// add despite instructions not to.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func truncateForLog(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
