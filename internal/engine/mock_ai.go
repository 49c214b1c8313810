package engine

import (
	"context"
	"sync"

	"github.com/buildtally/buildtally/internal/ai"
)

// MockSuggester is a test implementation of the ai.Suggester interface.
// Behavior is supplied through function fields; unset fields return
// empty results. Calls are recorded for assertions.
type MockSuggester struct {
	CategorizeItemsFn func(ctx context.Context, req ai.CategorizeRequest) ([]ai.ItemSuggestion, error)
	SuggestOverallFn  func(ctx context.Context, vendorName string, descriptions, categories []string) (*ai.OverallSuggestion, error)
	ValidateKeyFn     func(ctx context.Context) (bool, error)

	calls []ai.CategorizeRequest
	mu    sync.Mutex
}

// NewMockSuggester creates a new mock suggester.
func NewMockSuggester() *MockSuggester {
	return &MockSuggester{}
}

// CategorizeItems records the request and delegates to CategorizeItemsFn.
func (m *MockSuggester) CategorizeItems(ctx context.Context, req ai.CategorizeRequest) ([]ai.ItemSuggestion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CategorizeItemsFn != nil {
		return m.CategorizeItemsFn(ctx, req)
	}
	return nil, nil
}

// SuggestOverallCategory delegates to SuggestOverallFn.
func (m *MockSuggester) SuggestOverallCategory(ctx context.Context, vendorName string, descriptions, categories []string) (*ai.OverallSuggestion, error) {
	if m.SuggestOverallFn != nil {
		return m.SuggestOverallFn(ctx, vendorName, descriptions, categories)
	}
	return nil, nil
}

// ValidateKey delegates to ValidateKeyFn.
func (m *MockSuggester) ValidateKey(ctx context.Context) (bool, error) {
	if m.ValidateKeyFn != nil {
		return m.ValidateKeyFn(ctx)
	}
	return true, nil
}

// Calls returns a copy of the recorded categorization requests.
func (m *MockSuggester) Calls() []ai.CategorizeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.CategorizeRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// Factory returns an ai.Factory that always yields this mock.
func (m *MockSuggester) Factory() ai.Factory {
	return func(string) (ai.Suggester, error) {
		return m, nil
	}
}
