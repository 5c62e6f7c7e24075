// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"errors"
	"iter"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentrouter/credential"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
)

const (
	// EnvVar holds the Anthropic API key.
	EnvVar = "ANTHROPIC_API_KEY"
	// DefaultBaseURL is the public Messages API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// ProviderName tags descriptions and errors.
	ProviderName = "anthropic"
)

var _ model.Model = (*Model)(nil)

// Options configures the Anthropic model adapter (model id, API key,
// endpoint, timeouts). Extend via functional options to preserve stability.
type Options struct {
	Model          anthropic.Model
	APIKey         string
	BaseURL        string
	Name           string
	RequestTimeout time.Duration
	HTTPClient     *http.Client

	CredentialLookup credential.LookupFunc
	Logger           logging.Logger
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client anthropic.Client
	opts   Options
}

// New creates a new Anthropic model using the official client. It fails with
// *credential.MissingCredentialError when no key is configured.
func New(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:   anthropic.ModelClaudeSonnet4_5,
		BaseURL: DefaultBaseURL,
		Name:    "AnthropicChat",
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Model == "" {
		return nil, errors.New("anthropic: model id is required")
	}

	loadOpts := []func(o *credential.LoadOptions){credential.WithEnvVar(EnvVar)}
	if opts.CredentialLookup != nil {
		loadOpts = append(loadOpts, credential.WithLookup(opts.CredentialLookup))
	}
	cred, err := credential.Load(opts.APIKey, loadOpts...)
	if err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cred.Value()),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Model{client: anthropic.NewClient(clientOpts...), opts: opts}, nil
}

// Generate performs a blocking Messages call and concatenates the text blocks
// of the reply.
func (m *Model) Generate(ctx context.Context, messages []model.Message, opts model.Options) (string, error) {
	params := m.buildParams(messages, opts)

	var httpResp *http.Response
	reqOpts := append(extraOptions(opts.Extra), option.WithResponseInto(&httpResp))

	// Messages.New installs its own per-request timeout, so bound the call via ctx.
	if m.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		err = upstreamError(err, httpResp)
		logging.LogCompletion(m.opts.Logger, string(m.opts.Model), 0, time.Since(start), err)
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	logging.LogCompletion(m.opts.Logger, string(m.opts.Model), len(resp.Content), time.Since(start), nil)
	return sb.String(), nil
}

// GenerateStream streams text deltas. Options are filtered and max tokens
// clamped with the same rules as every other adapter.
func (m *Model) GenerateStream(ctx context.Context, messages []model.Message, opts model.Options) iter.Seq2[model.StreamEvent, error] {
	return func(yield func(model.StreamEvent, error) bool) {
		sendOpts := opts.ForStreaming()
		params := m.buildParams(messages, sendOpts)

		var httpResp *http.Response
		reqOpts := append(extraOptions(sendOpts.Extra), option.WithResponseInto(&httpResp))

		start := time.Now()
		stream := m.client.Messages.NewStreaming(ctx, params, reqOpts...)
		defer stream.Close()

		chunks := 0
		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			chunks++
			if !yield(model.StreamEvent{Content: delta.Text, Role: model.RoleAssistant}, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			err = upstreamError(err, httpResp)
			logging.LogCompletion(m.opts.Logger, string(m.opts.Model), chunks, time.Since(start), err)
			yield(model.StreamEvent{}, err)
			return
		}
		logging.LogCompletion(m.opts.Logger, string(m.opts.Model), chunks, time.Since(start), nil)
	}
}

func (m *Model) buildParams(messages []model.Message, opts model.Options) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     m.opts.Model,
		Messages:  buildMessages(messages),
		MaxTokens: model.ClampMaxTokens(opts.MaxTokens),
	}
	if system := extractSystem(messages); len(system) > 0 {
		params.System = system
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = anthropic.Float(*opts.TopP)
	}
	if len(opts.Stop) > 0 {
		params.StopSequences = opts.Stop
	}
	if opts.User != "" {
		params.Metadata = anthropic.MetadataParam{UserID: anthropic.String(opts.User)}
	}
	return params
}

// buildMessages converts the conversation to Anthropic message format.
// System entries are lifted into the System field instead.
func buildMessages(messages []model.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleTool:
			if msg.ToolCallID != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
				continue
			}
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func extractSystem(messages []model.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if msg.Role == model.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

func extraOptions(extra map[string]any) []option.RequestOption {
	reqOpts := make([]option.RequestOption, 0, len(extra)+1)
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		switch k {
		case "model", "messages", "stream", "max_tokens":
			continue
		}
		reqOpts = append(reqOpts, option.WithJSONSet(k, extra[k]))
	}
	return reqOpts
}

// upstreamError maps SDK failures onto model.UpstreamError. Anthropic error
// bodies carry the human readable text at error.message.
func upstreamError(err error, resp *http.Response) error {
	ue := &model.UpstreamError{Provider: ProviderName, Err: err}
	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		ue.StatusCode = apiErr.StatusCode
		ue.Message = gjson.Get(apiErr.RawJSON(), "error.message").String()
	case resp != nil && resp.StatusCode >= http.StatusBadRequest:
		ue.StatusCode = resp.StatusCode
	}
	return ue
}

// Describe returns metadata describing this Anthropic model implementation.
func (m *Model) Describe() model.Description {
	return model.Description{
		ID:       string(m.opts.Model),
		Name:     m.opts.Name,
		Provider: ProviderName,
		BaseURL:  m.opts.BaseURL,
	}
}

// InstructionsFor implements model.PromptHooks.
func (m *Model) InstructionsFor(model.AgentInfo) (string, bool) { return "", false }

// SystemMessageFor implements model.PromptHooks.
func (m *Model) SystemMessageFor(model.AgentInfo) (string, bool) { return "", false }
