package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/keycheck"
	"github.com/hupe1980/agentrouter/logging"
)

func newValidateKeyCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-key",
		Short: "Send one minimal request to verify the OpenRouter API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			log, err := rt.logger(cfg, cmd.ErrOrStderr(), "keycheck")
			if err != nil {
				return err
			}
			validateKey(cmd.Context(), cmd.OutOrStdout(), cfg, log)
			return nil
		},
	}
}

// validateKey prints the validation report and returns the result.
func validateKey(ctx context.Context, w io.Writer, cfg *config.Config, log logging.Logger) keycheck.Result {
	fmt.Fprintln(w, "=== OpenRouter API key validation ===")

	if path, found := cfg.EnvFile(); found {
		fmt.Fprintf(w, "[ok] .env file found: %s\n", path)
	} else {
		fmt.Fprintln(w, "[missing] .env file not found")
	}

	cred := cfg.Credential()
	if cred.Usable() {
		fmt.Fprintf(w, "Validating API key: %s\n", cred.Masked(15))
	}

	v := keycheck.New(func(o *keycheck.Options) {
		o.BaseURL = cfg.BaseURL
		o.Timeout = cfg.KeyCheckTimeout
		o.Referer = cfg.Referer
		o.Title = cfg.Title
		o.Logger = log
	})
	defer v.Close()

	res := v.Validate(ctx, cred)

	switch res.Status {
	case keycheck.StatusValid:
		fmt.Fprintln(w, "[ok] API key is valid")
	case keycheck.StatusNotConfigured:
		fmt.Fprintln(w, "[missing] API key not configured")
	case keycheck.StatusUnauthorized:
		fmt.Fprintf(w, "[invalid] API key rejected: %s\n", res.Reason)
	case keycheck.StatusUnexpected:
		fmt.Fprintf(w, "[warn] request failed with status %d\n", res.StatusCode)
		fmt.Fprintf(w, "  %s\n", res.Reason)
	default:
		fmt.Fprintf(w, "[error] %s\n", res.Reason)
	}

	if res.Valid {
		fmt.Fprintln(w, "\nAPI key verified. The agent is ready to start.")
		return res
	}

	fmt.Fprintln(w, "\nHow to fix:")
	fmt.Fprintf(w, "1. Visit %s\n", keysURL)
	fmt.Fprintln(w, "2. Create a new API key")
	fmt.Fprintln(w, "3. Replace OPENROUTER_API_KEY in your .env file")
	fmt.Fprintln(w, "4. Run validate-key again")
	return res
}
