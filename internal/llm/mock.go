package llm

import (
	"context"
	"sync"
)

// MockOracle is a configurable Oracle for tests. Set GenerateFunc to control
// replies; Calls and Prompts record what was asked.
type MockOracle struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Calls   int
	Prompts []string
}

func NewMockOracle(reply string) *MockOracle {
	return &MockOracle{
		GenerateFunc: func(context.Context, string) (string, error) { return reply, nil },
	}
}

func NewFailingOracle(err error) *MockOracle {
	return &MockOracle{
		GenerateFunc: func(context.Context, string) (string, error) { return "", err },
	}
}

func (m *MockOracle) Name() string { return "mock" }

func (m *MockOracle) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn == nil {
		return "", nil
	}
	return fn(ctx, prompt)
}

func (m *MockOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
