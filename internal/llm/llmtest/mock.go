// Package llmtest provides fake llm.Client implementations for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/fitness-planner/internal/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	CompleteFunc func(ctx context.Context, req llm.Request) (string, error)
	GetModelFunc func(tier llm.ModelTier) string
	CloseFunc    func() error

	mu       sync.Mutex
	requests []llm.Request
}

// Complete records req and delegates to CompleteFunc.
func (m *MockClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "{}", nil
}

func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns the number of Complete calls so far.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Route answers requests whose system prompt contains Match.
type Route struct {
	Match   string
	Respond func(ctx context.Context, req llm.Request) (string, error)
}

// Router returns a CompleteFunc that dispatches on the system prompt.
// The first matching route wins; unmatched requests fail.
func Router(routes ...Route) func(ctx context.Context, req llm.Request) (string, error) {
	return func(ctx context.Context, req llm.Request) (string, error) {
		for _, r := range routes {
			if strings.Contains(req.System, r.Match) {
				return r.Respond(ctx, req)
			}
		}
		return "", fmt.Errorf("llmtest: no route for system prompt %q", truncate(req.System, 60))
	}
}

// Static returns a responder that always answers text.
func Static(text string) func(context.Context, llm.Request) (string, error) {
	return func(context.Context, llm.Request) (string, error) { return text, nil }
}

// Sequence returns a responder that answers each text in turn and then keeps
// repeating the last one.
func Sequence(texts ...string) func(context.Context, llm.Request) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, llm.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(texts) == 0 {
			return "", nil
		}
		text := texts[i]
		if i < len(texts)-1 {
			i++
		}
		return text, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
