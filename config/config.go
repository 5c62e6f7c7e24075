// Package config loads the runtime configuration from the process environment,
// optionally merged with a local .env file. Which side wins when both define a
// variable is an explicit Precedence choice rather than an accident of load order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/hupe1980/agentrouter/credential"
)

// DefaultEnvFile is the .env path consulted when none is configured.
const DefaultEnvFile = ".env"

// Precedence decides which source wins when the process environment and the
// .env file both define a variable.
type Precedence int

const (
	// PrecedenceEnvironment keeps non-empty process variables and only fills
	// unset or empty ones from the file.
	PrecedenceEnvironment Precedence = iota
	// PrecedenceFile lets every file value override the process environment.
	PrecedenceFile
)

// String returns the flag-friendly name of the precedence.
func (p Precedence) String() string {
	if p == PrecedenceFile {
		return "file"
	}
	return "environment"
}

// Config holds the environment driven configuration.
type Config struct {
	APIKey          string        `env:"OPENROUTER_API_KEY"`
	BaseURL         string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model           string        `env:"OPENROUTER_MODEL" envDefault:"qwen/qwen-plus-2025-07-28"`
	Referer         string        `env:"OPENROUTER_HTTP_REFERER" envDefault:"http://localhost:7777"`
	Title           string        `env:"OPENROUTER_APP_TITLE" envDefault:"AgentOS Test"`
	RequestTimeout  time.Duration `env:"OPENROUTER_REQUEST_TIMEOUT" envDefault:"60s"`
	KeyCheckTimeout time.Duration `env:"KEYCHECK_TIMEOUT" envDefault:"10s"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AgentName       string        `env:"AGENT_NAME" envDefault:"Assistant"`
	Instructions    []string      `env:"AGENT_INSTRUCTIONS" envSeparator:"|"`
	Markdown        bool          `env:"AGENT_MARKDOWN" envDefault:"true"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`

	envFile      string
	envFileFound bool
	environ      map[string]string
}

// Options configures Load.
type Options struct {
	// EnvFile is the .env path; empty disables file loading.
	EnvFile    string
	Precedence Precedence
	// Environ replaces os.Environ (tests).
	Environ func() []string
}

// Load merges the process environment with the optional .env file according to
// the configured precedence and parses the result into Config. The process
// environment itself is never modified. A missing .env file is not an error.
func Load(optFns ...func(o *Options)) (*Config, error) {
	opts := Options{
		EnvFile:    DefaultEnvFile,
		Precedence: PrecedenceEnvironment,
		Environ:    os.Environ,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	merged := toMap(opts.Environ())

	cfg := &Config{}
	if opts.EnvFile != "" {
		path, err := filepath.Abs(opts.EnvFile)
		if err != nil {
			path = opts.EnvFile
		}
		cfg.envFile = path

		fileVars, found, err := readEnvFile(path)
		if err != nil {
			return nil, err
		}
		cfg.envFileFound = found
		merge(merged, fileVars, opts.Precedence)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.environ = merged

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("OPENROUTER_BASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("OPENROUTER_MODEL must not be empty")
	}
	if cfg.KeyCheckTimeout <= 0 {
		cfg.KeyCheckTimeout = 10 * time.Second
	}

	return cfg, nil
}

// WithEnvFile sets the .env path; an empty path disables file loading.
func WithEnvFile(path string) func(o *Options) {
	return func(o *Options) { o.EnvFile = path }
}

// WithPrecedence selects which source wins on conflicts.
func WithPrecedence(p Precedence) func(o *Options) {
	return func(o *Options) { o.Precedence = p }
}

// EnvFile returns the absolute .env path that was consulted and whether it existed.
func (c *Config) EnvFile() (string, bool) { return c.envFile, c.envFileFound }

// Lookup resolves a variable from the merged environment.
func (c *Config) Lookup(key string) (string, bool) {
	v, ok := c.environ[key]
	return v, ok
}

// Credential returns the OpenRouter key resolved from the merged environment.
// The result may be absent or the placeholder; callers decide how strict to be.
func (c *Config) Credential() credential.Credential {
	cred, err := credential.Load("", credential.WithLookup(c.Lookup))
	if err != nil {
		return credential.Credential{}
	}
	return cred
}

func readEnvFile(path string) (map[string]string, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", path, err)
	}
	return vars, true, nil
}

func merge(dst, file map[string]string, p Precedence) {
	for k, v := range file {
		if p == PrecedenceEnvironment && dst[k] != "" {
			continue
		}
		dst[k] = v
	}
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}
