package agent

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/session"
)

// MarkdownHint is appended to the system prompt when Markdown is enabled.
const MarkdownHint = "Use markdown to format your answers."

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instructions       []Instruction
	Markdown           bool
	MaxHistoryMessages int
	// Options are the generation options sent with every turn.
	Options  model.Options
	Sessions session.Store
	Logger   logging.Logger
}

// ModelAgent integrates a language model with session history.
//
// Each turn sends, in order: a system message built from the agent
// instructions plus any model augmentation, the most recent history
// messages, and the new user message.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instructions       []Instruction
	markdown           bool
	maxHistoryMessages int
	options            model.Options
	sessions           session.Store
	logger             logging.Logger
}

// NewModelAgent creates a new model-based agent with sensible defaults:
// a generic assistant instruction, a 20-message history window and an
// in-memory session store.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instructions:       []Instruction{NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name))},
		MaxHistoryMessages: 20,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore()
	}

	return &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instructions:       opts.Instructions,
		markdown:           opts.Markdown,
		maxHistoryMessages: opts.MaxHistoryMessages,
		options:            opts.Options,
		sessions:           opts.Sessions,
		logger:             opts.Logger,
	}
}

// Model returns the language model instance.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Sessions returns the backing session store.
func (a *ModelAgent) Sessions() session.Store { return a.sessions }

// MaxHistoryMessages returns the maximum number of history messages replayed per turn.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// Info describes the agent to model prompt hooks. Only static instructions are listed.
func (a *ModelAgent) Info() model.AgentInfo {
	info := model.AgentInfo{Name: a.Name(), Markdown: a.markdown}
	for _, inst := range a.instructions {
		if inst.IsStatic() {
			info.Instructions = append(info.Instructions, inst.text)
		}
	}
	return info
}

// ResolveInstructions produces the final system prompt by resolving static or
// dynamic instruction sources and the model's prompt hooks. An empty result
// means no system message is sent.
func (a *ModelAgent) ResolveInstructions(ctx context.Context) (string, error) {
	info := a.Info()

	var parts []string
	for _, inst := range a.instructions {
		text, err := inst.Resolve(ctx, info)
		if err != nil {
			return "", fmt.Errorf("resolve instruction: %w", err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	if text, ok := a.llm.SystemMessageFor(info); ok {
		parts = append(parts, text)
	}
	if text, ok := a.llm.InstructionsFor(info); ok {
		parts = append(parts, text)
	}
	if a.markdown {
		parts = append(parts, MarkdownHint)
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return "- " + strings.Join(parts, "\n- "), nil
	}
}

func (a *ModelAgent) buildMessages(ctx context.Context, sessionID, userText string) ([]model.Message, error) {
	system, err := a.ResolveInstructions(ctx)
	if err != nil {
		return nil, err
	}

	history, err := a.sessions.History(sessionID, a.maxHistoryMessages)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	msgs := make([]model.Message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, model.SystemMessage(system))
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, model.UserMessage(userText))
	return msgs, nil
}

// Run streams the reply to userText within sessionID. The turn is appended to
// the session only after the model stream completes without error; breaking
// out early discards it.
func (a *ModelAgent) Run(ctx context.Context, sessionID, userText string) iter.Seq2[model.StreamEvent, error] {
	return func(yield func(model.StreamEvent, error) bool) {
		a.logger.Debug("agent.run.start", "agent", a.Name(), "session", sessionID)
		start := time.Now()

		msgs, err := a.buildMessages(ctx, sessionID, userText)
		if err != nil {
			a.logger.Error("agent.run.prepare.error", "agent", a.Name(), "error", err.Error())
			yield(model.StreamEvent{}, err)
			return
		}

		var reply strings.Builder
		for ev, err := range a.llm.GenerateStream(ctx, msgs, a.options) {
			if err != nil {
				a.logger.Error("agent.run.error", "agent", a.Name(), "session", sessionID, "error", err.Error())
				yield(model.StreamEvent{}, err)
				return
			}
			reply.WriteString(ev.Content)
			if !yield(ev, nil) {
				a.logger.Warn("agent.run.abandoned", "agent", a.Name(), "session", sessionID)
				return
			}
		}

		if err := a.sessions.Append(sessionID, model.UserMessage(userText), model.AssistantMessage(reply.String())); err != nil {
			a.logger.Error("agent.session.append.error", "agent", a.Name(), "error", err.Error())
			yield(model.StreamEvent{}, fmt.Errorf("record history: %w", err))
			return
		}

		a.logger.Debug("agent.run.complete", "agent", a.Name(), "session", sessionID, "duration", time.Since(start))
	}
}

// RunSync runs a turn and returns the concatenated reply.
func (a *ModelAgent) RunSync(ctx context.Context, sessionID, userText string) (string, error) {
	return model.Collect(a.Run(ctx, sessionID, userText))
}
