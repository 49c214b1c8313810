package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// openAIClient implements Suggester against the OpenAI chat API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1500
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// CategorizeItems sends the line items and candidate categories in one
// request and parses one suggestion per item. A single attempt, no
// retry: the caller already has vendor/keyword results to fall back on.
func (c *openAIClient) CategorizeItems(ctx context.Context, req CategorizeRequest) ([]ItemSuggestion, error) {
	if len(req.Items) == 0 {
		return nil, nil
	}

	content, err := c.complete(ctx,
		"You are an invoice line-item categorizer for construction project budgets. You MUST respond with ONLY a valid JSON array. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with [ and end with ].",
		c.buildItemsPrompt(req))
	if err != nil {
		return nil, err
	}

	return parseItemSuggestions(content, req.Categories)
}

// SuggestOverallCategory asks for a single category covering the whole
// invoice.
func (c *openAIClient) SuggestOverallCategory(ctx context.Context, vendorName string, descriptions, categories []string) (*OverallSuggestion, error) {
	content, err := c.complete(ctx,
		"You are an invoice categorizer for construction project budgets. You MUST respond with ONLY a valid JSON object. Start your response directly with { and end with }.",
		buildOverallPrompt(vendorName, descriptions, categories))
	if err != nil {
		return nil, err
	}

	return parseOverallSuggestion(content, categories)
}

// ValidateKey performs a lightweight models listing, which authenticates
// without generating content.
func (c *openAIClient) ValidateKey(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d validating key", resp.StatusCode)
	}
}

// complete performs one chat completion call and returns the message
// content.
func (c *openAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

func (c *openAIClient) buildItemsPrompt(req CategorizeRequest) string {
	var b strings.Builder

	b.WriteString("Categorize each invoice line item into exactly one of these budget categories:\n")
	for _, cat := range req.Categories {
		fmt.Fprintf(&b, "- %s\n", cat)
	}

	if req.VendorName != "" {
		fmt.Fprintf(&b, "\nVendor: %s\n", req.VendorName)
	}

	b.WriteString("\nLine items:\n")
	for i, item := range req.Items {
		fmt.Fprintf(&b, "%d. %s ($%s)\n", i+1, item.Description, item.Amount.StringFixed(2))
	}

	b.WriteString(`
Respond with a JSON array with one object per line item, in the same order:
[{"description": "...", "category": "...", "confidence": 0.0}]
Use null for category when no listed category fits. Confidence is 0 to 1.`)

	return b.String()
}

func buildOverallPrompt(vendorName string, descriptions, categories []string) string {
	var b strings.Builder

	b.WriteString("Suggest the single budget category that best covers this entire invoice.\n\nCategories:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s\n", cat)
	}

	if vendorName != "" {
		fmt.Fprintf(&b, "\nVendor: %s\n", vendorName)
	}

	b.WriteString("\nLine items:\n")
	for _, desc := range descriptions {
		fmt.Fprintf(&b, "- %s\n", desc)
	}

	b.WriteString(`
Respond with a JSON object:
{"categoryName": "...", "confidence": 0.0, "reason": "..."}
Use null for categoryName when no listed category fits.`)

	return b.String()
}

// parseItemSuggestions recovers and validates the bulk response:
// categories outside the candidate list are discarded, confidences
// clamped into [0,1].
func parseItemSuggestions(content string, candidates []string) ([]ItemSuggestion, error) {
	var raw []struct {
		Description string   `json:"description"`
		Category    *string  `json:"category"`
		Confidence  *float64 `json:"confidence"`
	}

	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		repaired := repairJSON(content)
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse suggestions: %w", err)
		}
	}

	suggestions := make([]ItemSuggestion, len(raw))
	for i, r := range raw {
		s := ItemSuggestion{Description: r.Description}
		if r.Category != nil {
			s.Category = matchCandidate(*r.Category, candidates)
		}
		if s.Category != "" && r.Confidence != nil {
			s.Confidence = clampConfidence(*r.Confidence)
		}
		suggestions[i] = s
	}

	return suggestions, nil
}

// parseOverallSuggestion recovers and validates the single-category
// response. A missing or unknown category yields a nil suggestion, not
// an error.
func parseOverallSuggestion(content string, candidates []string) (*OverallSuggestion, error) {
	var raw struct {
		CategoryName *string  `json:"categoryName"`
		Confidence   *float64 `json:"confidence"`
		Reason       string   `json:"reason"`
	}

	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		repaired := repairJSONObject(content)
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion: %w", err)
		}
	}

	if raw.CategoryName == nil {
		return nil, nil
	}
	category := matchCandidate(*raw.CategoryName, candidates)
	if category == "" {
		return nil, nil
	}

	suggestion := &OverallSuggestion{
		Category: category,
		Reason:   raw.Reason,
	}
	if raw.Confidence != nil {
		suggestion.Confidence = clampConfidence(*raw.Confidence)
	}
	return suggestion, nil
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
}
