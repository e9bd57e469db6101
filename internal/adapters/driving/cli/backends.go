package cli

import (
	"github.com/spf13/cobra"
)

var backendsAPIKey string

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show which classification backends are available",
	Long: `Check the local and cloud backends without analysing anything.

The local backend needs a running Ollama server and, unless
local.require_accelerator is false, a supported GPU. The cloud backend
needs an API key; it is checked with a lightweight request.`,
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func init() {
	backendsCmd.Flags().StringVar(&backendsAPIKey, "api-key", "", "cloud API key (or set "+EnvAPIKey+")")
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, _ []string) error {
	if err := requireService("backend", backendService != nil); err != nil {
		return err
	}

	apiKey, err := resolveAPIKey(cmd, backendsAPIKey, "", "", false)
	if err != nil {
		return err
	}

	for _, st := range backendService.Status(cmd.Context(), apiKey) {
		state := "available"
		if !st.Available {
			state = "unavailable"
			if st.Reason != "" {
				state += ": " + st.Reason
			}
		}
		cmd.Printf("%-6s %-28s %s\n", st.Kind, st.Name, state)
		if st.Description != "" {
			cmd.Printf("       %s\n", st.Description)
		}
	}
	return nil
}
