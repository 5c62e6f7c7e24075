package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/model/anthropic"
	"github.com/hupe1980/agentrouter/model/openrouter"
	"github.com/hupe1980/agentrouter/session"
)

type chatFlags struct {
	provider    string
	sessionID   string
	maxTokens   int64
	temperature float64
}

func newChatCmd(rt *runtime) *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Ask the configured agent and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			log, err := rt.logger(cfg, cmd.ErrOrStderr(), "chat")
			if err != nil {
				return err
			}

			llm, err := newModel(f.provider, cfg, log)
			if err != nil {
				return err
			}

			a := newAgent(cfg, llm, log, f)
			sessionID := f.sessionID
			if sessionID == "" {
				sessionID = session.NewID()
			}

			out := cmd.OutOrStdout()
			for ev, err := range a.Run(ctx, sessionID, strings.Join(args, " ")) {
				if err != nil {
					fmt.Fprintln(out)
					return fmt.Errorf("chat: %w", err)
				}
				fmt.Fprint(out, ev.Content)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.provider, "provider", openrouter.ProviderName, "model provider: openrouter or anthropic")
	flags.StringVar(&f.sessionID, "session", "", "session id (default: random)")
	flags.Int64Var(&f.maxTokens, "max-tokens", 0, "maximum tokens to generate (capped at 2000)")
	flags.Float64Var(&f.temperature, "temperature", -1, "sampling temperature (negative keeps the provider default)")

	return cmd
}

func newModel(provider string, cfg *config.Config, log logging.Logger) (model.Model, error) {
	switch provider {
	case openrouter.ProviderName:
		m, err := openrouter.New(func(o *openrouter.Options) {
			o.Model = cfg.Model
			o.BaseURL = cfg.BaseURL
			o.Referer = cfg.Referer
			o.Title = cfg.Title
			o.RequestTimeout = cfg.RequestTimeout
			o.CredentialLookup = cfg.Lookup
			o.Logger = log
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case anthropic.ProviderName:
		m, err := anthropic.New(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			o.RequestTimeout = cfg.RequestTimeout
			o.CredentialLookup = cfg.Lookup
			o.Logger = log
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func newAgent(cfg *config.Config, llm model.Model, log logging.Logger, f chatFlags) *agent.ModelAgent {
	return agent.NewModelAgent(cfg.AgentName, llm, func(o *agent.ModelAgentOptions) {
		if len(cfg.Instructions) > 0 {
			o.Instructions = agent.InstructionsFromText(cfg.Instructions...)
		}
		o.Markdown = cfg.Markdown
		o.Logger = log
		o.Options.MaxTokens = f.maxTokens
		if f.temperature >= 0 {
			o.Options.Temperature = model.Float(f.temperature)
		}
	})
}
