// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.gapfinder.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable classification prompts, hot-reloaded with fsnotify
package file
