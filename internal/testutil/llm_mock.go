package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/llm"
)

// MockLLMClient is a mock implementation of llm.Client for testing.
// It returns a fixed response or error and records every prompt it receives.
type MockLLMClient struct {
	mu       sync.Mutex
	response string
	err      error
	delay    time.Duration
	prompts  []string
}

// NewMockLLMClient creates a mock that answers with response.
func NewMockLLMClient(response string) *MockLLMClient {
	return &MockLLMClient{response: response}
}

// WithError makes every call fail with err.
func (m *MockLLMClient) WithError(err error) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithDelay makes every call wait d, or until ctx is done.
func (m *MockLLMClient) WithDelay(d time.Duration) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Complete implements llm.Client.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	resp, err, delay := m.response, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

// Prompts returns every prompt received so far.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns how many completions were requested.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

var _ llm.Client = (*MockLLMClient)(nil)
