// Package cli wires the agentrouter commands.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/logging"
)

// BuildInfo carries version metadata injected at link time.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

// String renders the version line shown by --version.
func (b BuildInfo) String() string {
	switch {
	case b.Version == "":
		return ""
	case b.CommitSHA == "":
		return b.Version
	default:
		return fmt.Sprintf("%s (%s)", b.Version, b.CommitSHA)
	}
}

type runtime struct {
	build BuildInfo

	envFile     string
	envFileWins bool
	logLevel    string
	logFormat   string
}

// NewRootCmd constructs the Cobra root command.
func NewRootCmd(build BuildInfo) *cobra.Command {
	rt := &runtime{build: build}

	rootCmd := &cobra.Command{
		Use:           "agentrouter",
		Short:         "OpenRouter backed agent with configuration and key diagnostics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = build.String()
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.envFile, "env-file", config.DefaultEnvFile, "path of the .env file to merge (empty disables it)")
	flags.BoolVar(&rt.envFileWins, "env-file-wins", false, "let .env values override the process environment")
	flags.StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	flags.StringVar(&rt.logFormat, "log-format", "", "log format: text or json (default from LOG_FORMAT)")

	rootCmd.AddCommand(newCheckConfigCmd(rt))
	rootCmd.AddCommand(newValidateKeyCmd(rt))
	rootCmd.AddCommand(newChatCmd(rt))

	return rootCmd
}

func (rt *runtime) loadConfig() (*config.Config, error) {
	precedence := config.PrecedenceEnvironment
	if rt.envFileWins {
		precedence = config.PrecedenceFile
	}
	return config.Load(config.WithEnvFile(rt.envFile), config.WithPrecedence(precedence))
}

// logger builds the command logger; flags override the configured values.
func (rt *runtime) logger(cfg *config.Config, w io.Writer, component string) (logging.Logger, error) {
	levelName, format := cfg.LogLevel, cfg.LogFormat
	if rt.logLevel != "" {
		levelName = rt.logLevel
	}
	if rt.logFormat != "" {
		format = rt.logFormat
	}

	level, ok := logging.ParseLevel(levelName)
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    w,
		Component: component,
	}), nil
}
