package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/config"
)

const keysURL = "https://openrouter.ai/keys"

func newCheckConfigCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Report whether the .env file and OpenRouter API key are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			checkConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

// checkConfig prints the configuration report. It returns whether a usable key
// was found; the process exit status does not depend on it.
func checkConfig(w io.Writer, cfg *config.Config) bool {
	fmt.Fprintln(w, "Checking OpenRouter API configuration...")

	if path, found := cfg.EnvFile(); found {
		fmt.Fprintf(w, "[ok] .env file found: %s\n", path)
	} else if path != "" {
		fmt.Fprintf(w, "[missing] .env file not found: %s\n", path)
	} else {
		fmt.Fprintln(w, "[skip] .env file loading disabled")
	}

	cred := cfg.Credential()
	if cred.Usable() {
		fmt.Fprintf(w, "[ok] API key found: %s\n", cred.Masked(10))
		return true
	}

	fmt.Fprintln(w, "[missing] API key not configured or still the placeholder value")
	fmt.Fprintf(w, "  Get a key at %s\n", keysURL)
	fmt.Fprintln(w, "  then set OPENROUTER_API_KEY in your .env file")
	return false
}
