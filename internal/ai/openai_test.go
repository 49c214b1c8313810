package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemSuggestions(t *testing.T) {
	candidates := []string{"Plumbing", "Electrical"}

	t.Run("well-formed response", func(t *testing.T) {
		content := `[
			{"description": "copper pipe", "category": "Plumbing", "confidence": 0.92},
			{"description": "breaker panel", "category": "electrical", "confidence": 0.85}
		]`
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Plumbing", got[0].Category)
		assert.Equal(t, 0.92, got[0].Confidence)
		// Case-insensitive match resolves to the canonical name.
		assert.Equal(t, "Electrical", got[1].Category)
	})

	t.Run("fenced response with trailing comma", func(t *testing.T) {
		content := "```json\n[{\"description\": \"copper pipe\", \"category\": \"Plumbing\", \"confidence\": 0.9},]\n```"
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Plumbing", got[0].Category)
	})

	t.Run("invented category is discarded", func(t *testing.T) {
		content := `[{"description": "snacks", "category": "Office Morale", "confidence": 0.99}]`
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Category)
		assert.Zero(t, got[0].Confidence)
	})

	t.Run("null category", func(t *testing.T) {
		content := `[{"description": "misc", "category": null, "confidence": 0.5}]`
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Category)
	})

	t.Run("out of range confidence is clamped", func(t *testing.T) {
		content := `[
			{"description": "a", "category": "Plumbing", "confidence": 1.8},
			{"description": "b", "category": "Plumbing", "confidence": -0.2}
		]`
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got[0].Confidence)
		assert.Equal(t, 0.0, got[1].Confidence)
	})

	t.Run("brackets inside descriptions survive", func(t *testing.T) {
		content := `[{"description": "pipe [copper, 10ft]", "category": "Plumbing", "confidence": 0.9}]`
		got, err := parseItemSuggestions(content, candidates)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "pipe [copper, 10ft]", got[0].Description)
		assert.Equal(t, "Plumbing", got[0].Category)
	})

	t.Run("unrecoverable content is a total failure", func(t *testing.T) {
		_, err := parseItemSuggestions("I cannot help with that.", candidates)
		assert.Error(t, err)
	})
}

func TestParseOverallSuggestion(t *testing.T) {
	candidates := []string{"Plumbing", "Electrical"}

	t.Run("well-formed", func(t *testing.T) {
		got, err := parseOverallSuggestion(`{"categoryName": "plumbing", "confidence": 0.8, "reason": "mostly pipe"}`, candidates)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Plumbing", got.Category)
		assert.Equal(t, 0.8, got.Confidence)
		assert.Equal(t, "mostly pipe", got.Reason)
	})

	t.Run("brackets inside the reason survive", func(t *testing.T) {
		candidates := []string{"Plumbing", "Electrical", "Permits & Fees"}
		content := `{"categoryName": "Permits & Fees", "confidence": 0.9, "reason": "permit fees per [city schedule]"}`
		got, err := parseOverallSuggestion(content, candidates)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Permits & Fees", got.Category)
		assert.Equal(t, "permit fees per [city schedule]", got.Reason)
	})

	t.Run("fenced object with prose and brackets in the reason", func(t *testing.T) {
		content := "Sure!\n```json\n{\"categoryName\": \"Plumbing\", \"confidence\": 0.7, \"reason\": \"pipe [PVC]\",}\n```"
		got, err := parseOverallSuggestion(content, candidates)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Plumbing", got.Category)
	})

	t.Run("null category is no suggestion", func(t *testing.T) {
		got, err := parseOverallSuggestion(`{"categoryName": null, "confidence": 0, "reason": ""}`, candidates)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown category is no suggestion", func(t *testing.T) {
		got, err := parseOverallSuggestion(`{"categoryName": "Snacks", "confidence": 0.9, "reason": ""}`, candidates)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("malformed is an error", func(t *testing.T) {
		_, err := parseOverallSuggestion("no json here", candidates)
		assert.Error(t, err)
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *openAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"id":    "chatcmpl-test",
		"model": "gpt-4o-mini",
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}, "index": 0},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestCategorizeItemsHTTP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		chatReply(t, w, `[{"description": "copper pipe", "category": "Plumbing", "confidence": 0.9}]`)
	})

	got, err := client.CategorizeItems(context.Background(), CategorizeRequest{
		VendorName: "Bob's Plumbing",
		Items:      []ItemInput{{Description: "copper pipe", Amount: decimal.NewFromInt(45)}},
		Categories: []string{"Plumbing", "Electrical"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Plumbing", got[0].Category)
}

func TestCategorizeItemsEmptyInput(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	got, err := client.CategorizeItems(context.Background(), CategorizeRequest{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCategorizeItemsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})

	_, err := client.CategorizeItems(context.Background(), CategorizeRequest{
		Items:      []ItemInput{{Description: "copper pipe", Amount: decimal.NewFromInt(45)}},
		Categories: []string{"Plumbing"},
	})
	assert.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusOK)
		})
		ok, err := client.ValidateKey(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		ok, err := client.ValidateKey(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("server failure is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := client.ValidateKey(context.Background())
		assert.Error(t, err)
	})
}

func TestNewSuggesterRequiresKey(t *testing.T) {
	_, err := NewSuggester(Config{})
	assert.Error(t, err)
}
