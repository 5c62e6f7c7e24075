// Package testutil provides a fake OpenAI-compatible chat completions server
// for adapter, agent and CLI tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request observed by ChatServer.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

// ChatServer serves /chat/completions with a configurable responder and
// records every request it receives.
type ChatServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	responder http.HandlerFunc
}

// NewChatServer starts a server that answers every request with responder.
// The server is closed when the test ends.
func NewChatServer(t testing.TB, responder http.HandlerFunc) *ChatServer {
	t.Helper()
	s := &ChatServer{responder: responder}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	s.responder(w, r)
}

// Requests returns the requests recorded so far.
func (s *ChatServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Count returns the number of requests received.
func (s *ChatServer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request or fails the test.
func (s *ChatServer) LastRequest(t testing.TB) RecordedRequest {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatalf("no request recorded")
	}
	return reqs[len(reqs)-1]
}

// JSON answers with status and a raw JSON body.
func JSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// SSE streams each chunk as a server-sent event followed by [DONE].
func SSE(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
			if flusher != nil {
				flusher.Flush()
			}
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}
}

// DroppedSSE writes the chunks as server-sent events over a chunked response
// and then closes the connection without terminating the body or sending [DONE].
func DroppedSSE(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			return
		}
		defer conn.Close()

		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nTransfer-Encoding: chunked\r\n\r\n")
		for _, c := range chunks {
			event := fmt.Sprintf("data: %s\n\n", c)
			fmt.Fprintf(buf, "%x\r\n%s\r\n", len(event), event)
		}
		_ = buf.Flush()
	}
}

// Chunk builds a chat.completion.chunk with a content delta. An empty role is omitted.
func Chunk(content, role string) string {
	delta := map[string]any{"content": content}
	if role != "" {
		delta["role"] = role
	}
	return chunkWithDelta(delta)
}

// EmptyChunk builds a chunk whose delta carries no content.
func EmptyChunk() string {
	return chunkWithDelta(map[string]any{})
}

func chunkWithDelta(delta map[string]any) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "gen-test",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "test/model",
		"choices": []any{map[string]any{"index": 0, "delta": delta, "finish_reason": nil}},
	})
	return string(b)
}

// Completion builds a non-streaming chat.completion body.
func Completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "gen-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test/model",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

// ErrorBody builds an OpenAI style error envelope.
func ErrorBody(message string) string {
	b, _ := json.Marshal(map[string]any{"error": map[string]any{"message": message, "type": "error"}})
	return string(b)
}
