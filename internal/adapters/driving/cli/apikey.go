package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// stdinIsTerminal and readSecret are replaced in tests.
var (
	stdinIsTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	readSecret = func() (string, error) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(b), err
	}
)

// resolveAPIKey returns the cloud credential for this run: the flag, then
// the environment, then a no-echo prompt. The prompt is only shown when the
// cloud backend may be used and stdin is a terminal. The key is never
// written anywhere.
func resolveAPIKey(cmd *cobra.Command, flag string, mode, fallback domain.BackendKind, prompt bool) (string, error) {
	if key := strings.TrimSpace(flag); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}
	if !prompt || (mode != domain.BackendCloud && fallback != domain.BackendCloud) || !stdinIsTerminal() {
		return "", nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Cloud API key (input hidden): ")
	key, err := readSecret()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(key), nil
}

