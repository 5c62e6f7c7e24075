package model

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
)

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// It answers with canned text keyed by the last user message and records every
// conversation it was asked to complete.
type MockModel struct {
	desc         Description
	systemPrompt string

	mu        sync.Mutex
	responses map[string]string
	calls     [][]Message
}

// NewMockModel constructs a MockModel.
func NewMockModel(id, provider string) *MockModel {
	return &MockModel{
		desc:      Description{ID: id, Name: id, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetSystemMessage makes SystemMessageFor return text.
func (m *MockModel) SetSystemMessage(text string) { m.systemPrompt = text }

// Calls returns copies of the conversations received so far.
func (m *MockModel) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	for i, c := range m.calls {
		out[i] = append([]Message(nil), c...)
	}
	return out
}

func (m *MockModel) answer(messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]Message(nil), messages...))

	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			prompt = messages[i].Content
			break
		}
	}
	if prompt == "" {
		return "", fmt.Errorf("no user message provided")
	}
	if full, ok := m.responses[prompt]; ok {
		return full, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Generate implements Generator.
func (m *MockModel) Generate(_ context.Context, messages []Message, _ Options) (string, error) {
	return m.answer(messages)
}

// GenerateStream implements Streamer; it yields the answer word by word.
func (m *MockModel) GenerateStream(ctx context.Context, messages []Message, _ Options) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		full, err := m.answer(messages)
		if err != nil {
			yield(StreamEvent{}, err)
			return
		}
		for _, w := range strings.SplitAfter(full, " ") {
			if err := ctx.Err(); err != nil {
				yield(StreamEvent{}, err)
				return
			}
			if !yield(StreamEvent{Content: w, Role: RoleAssistant}, nil) {
				return
			}
		}
	}
}

// Describe implements Describer.
func (m *MockModel) Describe() Description { return m.desc }

// InstructionsFor implements PromptHooks.
func (m *MockModel) InstructionsFor(AgentInfo) (string, bool) { return "", false }

// SystemMessageFor implements PromptHooks.
func (m *MockModel) SystemMessageFor(AgentInfo) (string, bool) {
	return m.systemPrompt, m.systemPrompt != ""
}
