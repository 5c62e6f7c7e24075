package model

import (
	"context"
	"iter"
	"strings"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one chronological entry of a conversation.
type Message struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// UserMessage builds a user message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// AssistantMessage builds an assistant message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// SystemMessage builds a system message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// StreamEvent is one normalized increment of streamed output.
type StreamEvent struct {
	Content string `json:"content"`
	Role    Role   `json:"role"`
}

// Description identifies a model implementation for display and bookkeeping.
type Description struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
}

// AgentInfo is the slice of agent state a model may inspect when asked for
// prompt augmentation.
type AgentInfo struct {
	Name         string
	Instructions []string
	Markdown     bool
}

// Generator performs a single blocking completion and returns the text of the
// first choice.
type Generator interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Streamer opens a streaming completion. The returned sequence is lazy: nothing
// is sent until it is ranged over, every range opens a new upstream connection,
// and breaking out of the loop releases that connection. A terminal failure is
// yielded once as a non-nil error, after which the sequence ends.
type Streamer interface {
	GenerateStream(ctx context.Context, messages []Message, opts Options) iter.Seq2[StreamEvent, error]
}

// Describer exposes static metadata.
type Describer interface {
	Describe() Description
}

// PromptHooks lets a model contribute model-specific prompt text. The boolean
// reports whether any augmentation exists.
type PromptHooks interface {
	InstructionsFor(agent AgentInfo) (string, bool)
	SystemMessageFor(agent AgentInfo) (string, bool)
}

// Model is the full capability set a host requires from an adapter.
type Model interface {
	Generator
	Streamer
	Describer
	PromptHooks
}

// Collect drains a stream and concatenates its content.
func Collect(seq iter.Seq2[StreamEvent, error]) (string, error) {
	var b strings.Builder
	for ev, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(ev.Content)
	}
	return b.String(), nil
}
