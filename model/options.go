package model

import (
	"maps"
	"slices"
)

// MaxOutputTokens bounds every streamed completion regardless of what the
// caller asks for.
const MaxOutputTokens int64 = 2000

// unsupportedParams are keys hosts tend to forward that OpenAI-compatible
// providers reject.
var unsupportedParams = map[string]struct{}{
	"tool_call_limit":       {},
	"response_format":       {},
	"stream_model_response": {},
	"monitoring":            {},
	"metrics":               {},
	"run_response":          {},
}

// reservedParams are owned by the adapter and never taken from Extra.
var reservedParams = map[string]struct{}{
	"model":    {},
	"messages": {},
	"stream":   {},
}

// Options are the generation parameters accepted by adapters. Zero values
// mean "unset". Extra carries host supplied pass-through keys.
type Options struct {
	MaxTokens   int64
	Temperature *float64
	TopP        *float64
	Seed        *int64
	Stop        []string
	User        string
	Extra       map[string]any
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

// IsUnsupportedParam reports whether key is dropped before sending.
func IsUnsupportedParam(key string) bool {
	_, ok := unsupportedParams[key]
	return ok
}

// UnsupportedParams lists the dropped keys in sorted order.
func UnsupportedParams() []string {
	return slices.Sorted(maps.Keys(unsupportedParams))
}

// ClampMaxTokens returns n bounded by MaxOutputTokens; unset (<= 0) yields the ceiling.
func ClampMaxTokens(n int64) int64 {
	if n <= 0 || n > MaxOutputTokens {
		return MaxOutputTokens
	}
	return n
}

// ForStreaming returns a copy with unsupported and reserved Extra keys removed,
// a max_tokens Extra value lifted into MaxTokens, and MaxTokens clamped.
// The receiver is not modified.
func (o Options) ForStreaming() Options {
	out := o
	out.Stop = slices.Clone(o.Stop)
	out.Extra = nil

	for k, v := range o.Extra {
		if IsUnsupportedParam(k) {
			continue
		}
		if _, ok := reservedParams[k]; ok {
			continue
		}
		if k == "max_tokens" {
			if n, ok := toInt64(v); ok && out.MaxTokens == 0 {
				out.MaxTokens = n
			}
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(o.Extra))
		}
		out.Extra[k] = v
	}

	out.MaxTokens = ClampMaxTokens(out.MaxTokens)
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	default:
		return 0, false
	}
}
