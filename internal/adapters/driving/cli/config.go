package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in config.toml.

API keys are never stored; pass --api-key or set GAPFINDER_API_KEY.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting by its dotted key.

Examples:
  gapfinder config set mode cloud
  gapfinder config set fallback none
  gapfinder config set cloud.provider openai
  gapfinder config set analysis.timeout 3m
  gapfinder config set keywords.en "limitation, future work, open question"`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Backend]")
	cmd.Printf("  Mode: %s\n", settings.Mode.Description())
	if settings.Fallback.IsValid() {
		cmd.Printf("  Fallback: %s\n", settings.Fallback.Description())
	} else {
		cmd.Printf("  Fallback: none\n")
	}
	localURL := settings.Local.BaseURL
	if localURL == "" {
		localURL = "default Ollama address"
	}
	cmd.Printf("  Local model: %s (%s)\n", settings.Local.Model, localURL)
	cmd.Printf("  Cloud: %s / %s\n", settings.Cloud.Provider.Description(), settings.Cloud.Model)
	cmd.Println()

	cmd.Println("[Embedding]")
	if settings.Embedding.IsConfigured() {
		cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	} else {
		cmd.Println("  Not configured (keyword screening only)")
	}
	cmd.Println()

	values := settingsService.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Println("[All keys]")
	for _, k := range keys {
		cmd.Printf("  %s = %s\n", k, values[k])
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := strings.TrimSpace(args[0]), args[1]
	if strings.EqualFold(key, "mode") {
		if err := settingsService.SetMode(domain.BackendKind(strings.ToLower(strings.TrimSpace(value)))); err != nil {
			return fmt.Errorf("failed to set mode: %w", err)
		}
	} else if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.ConfigPath())
	return nil
}
