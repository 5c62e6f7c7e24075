// Package logging provides a minimal logging interface and slog adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that adapters, the key validator and agents use. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - RouterLogger adding component and model attributes to every entry
//   - NoOpLogger for silent operation (tests, library defaults)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	llm, err := openrouter.New(func(o *openrouter.Options) { o.Logger = logger.WithComponent("openrouter") })
package logging
