// Package openrouter provides an implementation of model.Model on top of the
// OpenRouter chat completions API. OpenRouter speaks the OpenAI wire format, so
// the adapter drives the official openai-go client pointed at OpenRouter's
// base URL and normalizes its responses into model types.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentrouter/credential"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
)

const (
	// DefaultBaseURL is OpenRouter's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is used when no model id is configured.
	DefaultModel = "qwen/qwen-plus-2025-07-28"
	// ProviderName tags descriptions and errors.
	ProviderName = "openrouter"
)

var _ model.Model = (*Model)(nil)

// Options configure the OpenRouter adapter.
type Options struct {
	Model    string
	APIKey   string
	BaseURL  string
	Name     string
	Provider string

	// Role labels the host expects on assistant and tool messages.
	AssistantRole string
	ToolRole      string

	// Attribution headers (HTTP-Referer / X-Title) sent with every request.
	Referer string
	Title   string

	// RequestTimeout bounds blocking Generate calls; streams are bounded by ctx.
	RequestTimeout time.Duration
	HTTPClient     *http.Client

	// CredentialLookup replaces os.LookupEnv when APIKey is empty.
	CredentialLookup credential.LookupFunc
	Logger           logging.Logger
}

// Model wraps the chat completions endpoint behind the model.Model interface.
// It holds no mutable state after construction and is safe for concurrent use.
type Model struct {
	client openai.Client
	opts   Options
}

// New creates an adapter. The credential is resolved first; when none is
// available a *credential.MissingCredentialError is returned before any
// client is allocated.
func New(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:         DefaultModel,
		BaseURL:       DefaultBaseURL,
		Name:          "OpenRouterChat",
		Provider:      ProviderName,
		AssistantRole: string(model.RoleAssistant),
		ToolRole:      string(model.RoleTool),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Model == "" {
		return nil, errors.New("openrouter: model id is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("openrouter: base url is required")
	}

	var loadOpts []func(o *credential.LoadOptions)
	if opts.CredentialLookup != nil {
		loadOpts = append(loadOpts, credential.WithLookup(opts.CredentialLookup))
	}
	cred, err := credential.Load(opts.APIKey, loadOpts...)
	if err != nil {
		return nil, err
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(opts.BaseURL),
		option.WithAPIKey(cred.Value()),
		option.WithMaxRetries(0),
	}
	if opts.Referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", opts.Referer))
	}
	if opts.Title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", opts.Title))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Model{client: openai.NewClient(reqOpts...), opts: opts}, nil
}

// Generate performs one blocking completion and returns the first choice's
// content. Extra options are passed through unfiltered.
func (m *Model) Generate(ctx context.Context, messages []model.Message, opts model.Options) (string, error) {
	params := m.buildParams(messages, opts)

	var httpResp *http.Response
	reqOpts := append(extraOptions(opts.Extra), option.WithResponseInto(&httpResp))
	if m.opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(m.opts.RequestTimeout))
	}

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		err = m.upstreamError(err, httpResp)
		logging.LogCompletion(m.opts.Logger, m.opts.Model, 0, time.Since(start), err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		err = &model.UpstreamError{Provider: m.opts.Provider, Err: model.ErrNoChoices}
		logging.LogCompletion(m.opts.Logger, m.opts.Model, 0, time.Since(start), err)
		return "", err
	}

	logging.LogCompletion(m.opts.Logger, m.opts.Model, 1, time.Since(start), nil)
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream opens a streaming completion. Unsupported Extra keys are
// dropped and max_tokens is clamped to model.MaxOutputTokens before sending.
// One event is yielded per chunk carrying a content delta.
func (m *Model) GenerateStream(ctx context.Context, messages []model.Message, opts model.Options) iter.Seq2[model.StreamEvent, error] {
	return func(yield func(model.StreamEvent, error) bool) {
		sendOpts := opts.ForStreaming()
		params := m.buildParams(messages, sendOpts)

		var httpResp *http.Response
		reqOpts := append(extraOptions(sendOpts.Extra), option.WithResponseInto(&httpResp))

		start := time.Now()
		stream := m.client.Chat.Completions.NewStreaming(ctx, params, reqOpts...)
		defer stream.Close()

		chunks := 0
		for stream.Next() {
			ev, ok := m.toEvent(stream.Current())
			if !ok {
				continue
			}
			chunks++
			if !yield(ev, nil) {
				m.opts.Logger.Debug("stream abandoned by consumer", "model", m.opts.Model, "chunks", chunks)
				return
			}
		}

		if err := stream.Err(); err != nil {
			err = m.upstreamError(err, httpResp)
			logging.LogCompletion(m.opts.Logger, m.opts.Model, chunks, time.Since(start), err)
			yield(model.StreamEvent{}, err)
			return
		}
		logging.LogCompletion(m.opts.Logger, m.opts.Model, chunks, time.Since(start), nil)
	}
}

func (m *Model) toEvent(chunk openai.ChatCompletionChunk) (model.StreamEvent, bool) {
	if len(chunk.Choices) == 0 {
		return model.StreamEvent{}, false
	}
	delta := chunk.Choices[0].Delta
	if delta.Content == "" {
		return model.StreamEvent{}, false
	}
	role := model.Role(delta.Role)
	if role == "" {
		role = model.Role(m.opts.AssistantRole)
	}
	return model.StreamEvent{Content: delta.Content, Role: role}, true
}

// buildParams assembles the request body from the conversation and typed options.
func (m *Model) buildParams(messages []model.Message, opts model.Options) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: convertMessages(messages),
		Model:    openai.ChatModel(m.opts.Model),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = openai.Float(*opts.TopP)
	}
	if opts.Seed != nil {
		params.Seed = openai.Int(*opts.Seed)
	}
	if len(opts.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.Stop}
	}
	if opts.User != "" {
		params.User = openai.String(opts.User)
	}
	return params
}

// convertMessages maps conversation entries onto OpenAI message params,
// preserving order. Tool results without a call id degrade to user messages.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		case model.RoleTool:
			if msg.ToolCallID != "" {
				result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
				continue
			}
			result = append(result, openai.UserMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// extraOptions turns pass-through keys into body overrides, skipping the
// fields the adapter owns.
func extraOptions(extra map[string]any) []option.RequestOption {
	reqOpts := make([]option.RequestOption, 0, len(extra)+1)
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		switch k {
		case "model", "messages", "stream":
			continue
		}
		reqOpts = append(reqOpts, option.WithJSONSet(k, extra[k]))
	}
	return reqOpts
}

// upstreamError normalizes SDK errors. The raw response, when captured,
// supplies the status code if the body was not an OpenAI error envelope.
func (m *Model) upstreamError(err error, resp *http.Response) error {
	ue := &model.UpstreamError{Provider: m.opts.Provider, Err: err}
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		ue.StatusCode = apiErr.StatusCode
		ue.Message = apiErr.Message
	case resp != nil && resp.StatusCode >= http.StatusBadRequest:
		ue.StatusCode = resp.StatusCode
		ue.Message = fmt.Sprintf("%s: %v", http.StatusText(resp.StatusCode), err)
	}
	return ue
}

// Describe returns identifying metadata for the host.
func (m *Model) Describe() model.Description {
	return model.Description{
		ID:       m.opts.Model,
		Name:     m.opts.Name,
		Provider: m.opts.Provider,
		BaseURL:  m.opts.BaseURL,
	}
}

// AssistantRole is the label the host uses for assistant turns.
func (m *Model) AssistantRole() string { return m.opts.AssistantRole }

// ToolRole is the label the host uses for tool results.
func (m *Model) ToolRole() string { return m.opts.ToolRole }

// InstructionsFor implements model.PromptHooks. OpenRouter needs no
// model-specific instructions.
func (m *Model) InstructionsFor(model.AgentInfo) (string, bool) { return "", false }

// SystemMessageFor implements model.PromptHooks.
func (m *Model) SystemMessageFor(model.AgentInfo) (string, bool) { return "", false }
