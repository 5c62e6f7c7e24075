// Package keycheck validates an OpenRouter API key with a single minimal
// chat completion request and classifies the outcome.
package keycheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"resty.dev/v3"

	"github.com/hupe1980/agentrouter/credential"
	"github.com/hupe1980/agentrouter/logging"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout bounds the validation round trip.
	DefaultTimeout = 10 * time.Second
	// ProbeModel is the cheap model used for the probe request.
	ProbeModel = "openai/gpt-3.5-turbo"

	maxBodyExcerpt = 512
)

// Status classifies a validation outcome.
type Status int

const (
	// StatusNotConfigured means the key was absent or the placeholder.
	StatusNotConfigured Status = iota
	// StatusValid means the probe returned 200.
	StatusValid
	// StatusUnauthorized means the probe returned 401.
	StatusUnauthorized
	// StatusUnexpected covers every other HTTP status.
	StatusUnexpected
	// StatusTransportFailure means no HTTP response was received.
	StatusTransportFailure
)

func (s Status) String() string {
	switch s {
	case StatusNotConfigured:
		return "not_configured"
	case StatusValid:
		return "valid"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusUnexpected:
		return "unexpected_status"
	case StatusTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of a validation. Failures are reported here, never as errors.
type Result struct {
	Valid      bool
	Reason     string
	Status     Status
	StatusCode int
}

// Options configure a Validator.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Model   string
	Referer string
	Title   string
	// Transport replaces the HTTP round tripper, mostly for tests.
	Transport http.RoundTripper
	Logger    logging.Logger
}

// Validator probes the chat completions endpoint.
type Validator struct {
	client *resty.Client
	opts   Options
}

type probeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type probeRequest struct {
	Model     string         `json:"model"`
	Messages  []probeMessage `json:"messages"`
	MaxTokens int            `json:"max_tokens"`
}

// New creates a Validator. Retries are disabled so one Validate is one request.
func New(optFns ...func(o *Options)) *Validator {
	opts := Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Model:   ProbeModel,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(0)
	if opts.Referer != "" {
		client.SetHeader("HTTP-Referer", opts.Referer)
	}
	if opts.Title != "" {
		client.SetHeader("X-Title", opts.Title)
	}
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	}

	return &Validator{client: client, opts: opts}
}

// Validate checks cred against the provider. An absent or placeholder key is
// reported without touching the network.
func (v *Validator) Validate(ctx context.Context, cred credential.Credential) Result {
	if !cred.Usable() {
		res := Result{Status: StatusNotConfigured, Reason: "not configured"}
		v.opts.Logger.Warn("api key not configured", "source", cred.Source())
		return res
	}

	start := time.Now()
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(cred.Value()).
		SetBody(probeRequest{
			Model:     v.opts.Model,
			Messages:  []probeMessage{{Role: "user", Content: "Hello"}},
			MaxTokens: 5,
		}).
		Post("/chat/completions")

	res := classify(resp, err)
	logging.LogKeyCheck(v.opts.Logger, res.Status.String(), res.StatusCode, time.Since(start))
	return res
}

func classify(resp *resty.Response, err error) Result {
	if err != nil {
		return Result{Status: StatusTransportFailure, Reason: fmt.Sprintf("request failed: %v", err)}
	}

	code := resp.StatusCode()
	switch code {
	case http.StatusOK:
		return Result{Valid: true, Status: StatusValid, StatusCode: code, Reason: "ok"}
	case http.StatusUnauthorized:
		reason := gjson.Get(resp.String(), "error.message").String()
		if reason == "" {
			reason = "unauthorized"
		}
		return Result{Status: StatusUnauthorized, StatusCode: code, Reason: reason}
	default:
		return Result{
			Status:     StatusUnexpected,
			StatusCode: code,
			Reason:     fmt.Sprintf("unexpected status %d: %s", code, truncate(resp.String(), maxBodyExcerpt)),
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases idle connections.
func (v *Validator) Close() error {
	return v.client.Close()
}
