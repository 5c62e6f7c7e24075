package model

import (
	"errors"
	"fmt"
)

// ErrNoChoices is wrapped when a provider answers successfully without any choice.
var ErrNoChoices = errors.New("no choices returned")

// UpstreamError reports a failed provider call: a non-success HTTP status
// (StatusCode > 0) or a transport/stream failure (StatusCode == 0).
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
