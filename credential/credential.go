// Package credential resolves the OpenRouter API key from an explicit value or
// the process environment and classifies it (absent, placeholder, usable).
package credential

import (
	"errors"
	"os"
	"strings"
)

const (
	// EnvVar is the environment variable holding the OpenRouter API key.
	EnvVar = "OPENROUTER_API_KEY"

	// Placeholder marks a key that was copied from a template but never filled in.
	Placeholder = "YOUR_API_KEY_HERE"
)

// ErrMissingCredential is matched by every MissingCredentialError via errors.Is.
var ErrMissingCredential = errors.New("credential: missing api key")

// MissingCredentialError reports that neither the explicit value nor the
// environment yielded a usable key.
type MissingCredentialError struct {
	// EnvVar is the variable the caller should set.
	EnvVar string
	// Sources lists what was consulted, in order.
	Sources []string
}

func (e *MissingCredentialError) Error() string {
	name := e.EnvVar
	if name == "" {
		name = EnvVar
	}
	return "API key is required: set " + name + " or pass it explicitly (checked: " + strings.Join(e.Sources, ", ") + ")"
}

// Is lets callers match with errors.Is(err, ErrMissingCredential).
func (e *MissingCredentialError) Is(target error) bool { return target == ErrMissingCredential }

// Credential is an immutable API key value.
type Credential struct {
	value  string
	source string
}

// New wraps a raw key. An empty string yields an absent credential.
func New(value, source string) Credential {
	return Credential{value: strings.TrimSpace(value), source: source}
}

// Value returns the raw key.
func (c Credential) Value() string { return c.value }

// Source names where the key came from ("explicit", EnvVar, ...).
func (c Credential) Source() string { return c.source }

// Present reports whether a non-empty key was found.
func (c Credential) Present() bool { return c.value != "" }

// IsPlaceholder reports whether the key equals the template sentinel.
func (c Credential) IsPlaceholder() bool { return c.value == Placeholder }

// Usable reports whether the key is present and not the placeholder.
func (c Credential) Usable() bool { return c.Present() && !c.IsPlaceholder() }

// Masked returns the first n characters followed by "..." for display.
func (c Credential) Masked(n int) string {
	if n <= 0 || len(c.value) <= n {
		return strings.Repeat("*", min(len(c.value), 8))
	}
	return c.value[:n] + "..."
}

// String never reveals the key.
func (c Credential) String() string {
	if !c.Present() {
		return "<absent>"
	}
	return c.Masked(4)
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadOptions configures Load.
type LoadOptions struct {
	// EnvVar is the variable consulted when no explicit key is given.
	EnvVar string
	// Lookup replaces os.LookupEnv, e.g. with a merged .env view.
	Lookup LookupFunc
}

// Load returns the explicit key if non-empty, otherwise the value of
// OPENROUTER_API_KEY (or the variable set via WithEnvVar).
// It fails with *MissingCredentialError when both are empty.
func Load(explicit string, optFns ...func(o *LoadOptions)) (Credential, error) {
	opts := LoadOptions{EnvVar: EnvVar, Lookup: os.LookupEnv}
	for _, fn := range optFns {
		fn(&opts)
	}

	if c := New(explicit, "explicit"); c.Present() {
		return c, nil
	}

	if v, ok := opts.Lookup(opts.EnvVar); ok {
		if c := New(v, opts.EnvVar); c.Present() {
			return c, nil
		}
	}

	return Credential{}, &MissingCredentialError{EnvVar: opts.EnvVar, Sources: []string{"explicit", opts.EnvVar}}
}

// WithEnvVar changes the environment variable consulted by Load.
func WithEnvVar(name string) func(o *LoadOptions) {
	return func(o *LoadOptions) { o.EnvVar = name }
}

// WithLookup overrides the environment lookup used by Load.
func WithLookup(fn LookupFunc) func(o *LoadOptions) {
	return func(o *LoadOptions) { o.Lookup = fn }
}
