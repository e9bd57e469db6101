package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClassifySystem: `You are an expert academic research reviewer. You decide whether a passage from a scientific paper states a research gap: a limitation of the study, a call for future work, or something the authors say remains unknown, unexplored or insufficiently studied.

Answer with ONE JSON object and nothing else:
{
  "gap_found": true or false,
  "gap_type": one of "Limitation", "FutureWork", "Methodological", "Theoretical", "Contextual", "Empirical",
  "description": a clear explanation of the gap in one or two sentences,
  "evidence": a verbatim quote from the passage that states the gap,
  "suggestion": how a researcher could address the gap in one sentence,
  "confidence": a number between 0 and 1
}

If the passage does not state a gap, answer {"gap_found": false}.
The passage may be written in English, Portuguese or Spanish. Write description and suggestion in English; keep evidence in the original language.`,

	driven.PromptClassify: `Paper: %s

Passage:
"""
%s
"""

Surrounding context from the same paper:
"""
%s
"""

Does the passage state a research gap? Respond with the JSON object only.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.gapfinder/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// DefaultPrompt returns the embedded prompt for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// A user prompt whose placeholders do not match the default is ignored.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if def, ok := defaultPrompts[name]; ok && placeholders(prompt) != placeholders(def) {
		logger.Warn("prompt %s.txt has %d placeholder(s), expected %d; using built-in prompt",
			name, placeholders(prompt), placeholders(def))
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads prompts whenever a file in the prompt directory changes.
// It blocks until ctx is cancelled. onReload, if set, is called after each
// reload with the changed file name.
func (s *PromptStore) Watch(ctx context.Context, onReload func(name string)) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}
	logger.Debug("watching prompts in %s", s.promptDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".txt" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.Reload()
			logger.Info("prompt %s changed, reloaded", filepath.Base(event.Name))
			if onReload != nil {
				onReload(filepath.Base(event.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// placeholders counts %s verbs, ignoring escaped percent signs.
func placeholders(s string) int {
	return strings.Count(strings.ReplaceAll(s, "%%", ""), "%s")
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# GapFinder Prompts

This directory contains the prompts sent to the gap classification models.

## Files

- ` + "`classify_system.txt`" + ` - Instructions and the JSON answer schema
- ` + "`classify.txt`" + ` - Per-passage request

## Customisation

Edit any file to customise model behaviour. ` + "`gapfinder mcp serve`" + ` picks up
changes immediately; other commands read the files on start.

## Format Placeholders

` + "`classify.txt`" + ` takes three ` + "`%s`" + ` placeholders, in order: the paper title,
the passage and the surrounding context. A file with a different number of
placeholders is ignored in favour of the built-in prompt.
`
	return os.WriteFile(path, []byte(content), 0600)
}
