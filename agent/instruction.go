package agent

import (
	"context"

	"github.com/hupe1980/agentrouter/model"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from agent state, environment, etc.
type Provider interface {
	Instruction(ctx context.Context, info model.AgentInfo) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, info model.AgentInfo) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, info model.AgentInfo) (string, error) {
	return f(ctx, info)
}

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, info model.AgentInfo) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// InstructionsFromText converts a list of static strings.
func InstructionsFromText(texts ...string) []Instruction {
	out := make([]Instruction, 0, len(texts))
	for _, t := range texts {
		out = append(out, NewInstructionFromText(t))
	}
	return out
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx context.Context, info model.AgentInfo) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, info)
	}
	return i.text, nil
}
