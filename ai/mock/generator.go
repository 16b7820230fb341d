package mock

import (
	"context"

	"github.com/poiesic/parlance/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a canned answer echoing the last human turn.
	GenerateFunc func(ctx context.Context, turns []ai.ChatTurn) (string, error)

	callCount int
	lastTurns []ai.ChatTurn
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the turns and returns either the injected behavior's
// result or a canned answer.
func (m *MockGenerator) Generate(ctx context.Context, turns []ai.ChatTurn) (string, error) {
	m.callCount++
	m.lastTurns = turns

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, turns)
	}

	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ai.RoleHuman {
			return "mock answer to: " + turns[i].Content, nil
		}
	}
	return "mock answer", nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastTurns returns the turn sequence from the most recent Generate call.
// Tests use this to assert on prompt assembly.
func (m *MockGenerator) LastTurns() []ai.ChatTurn {
	return m.lastTurns
}

// Reset clears recorded state and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.lastTurns = nil
	m.GenerateFunc = nil
}
