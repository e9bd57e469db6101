package driving

import "github.com/custodia-labs/gapfinder-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Set updates a single setting by dotted key and persists it.
	// Credential keys are rejected: API keys are never written to disk.
	Set(key, value string) error

	// Values returns all stored key/value pairs for display.
	Values() map[string]string

	// SetMode updates the primary backend kind.
	SetMode(mode domain.BackendKind) error

	// Validate checks that the current settings are coherent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ConfigPath returns the configuration file location.
	ConfigPath() string
}
