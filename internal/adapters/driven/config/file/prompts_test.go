package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptClassify)
	require.NoError(t, err)

	for _, f := range []string{"classify.txt", "classify_system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_DefaultHasThreePlaceholders(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptClassify)
	require.NoError(t, err)
	assert.Equal(t, 3, placeholders(prompt))

	system, err := store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)
	assert.Contains(t, system, "gap_found")
	assert.Zero(t, placeholders(system))
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Title %s\nPassage %s\nContext %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptClassify)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_RejectsWrongPlaceholders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify.txt"), []byte("only %s here"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptClassify)
	require.NoError(t, err)
	def, _ := DefaultPrompt(driven.PromptClassify)
	assert.Equal(t, def, prompt)
}

func TestPromptStore_Load_FallsBackToDefaultWhenDeleted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "classify_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)
	def, _ := DefaultPrompt(driven.PromptClassifySystem)
	assert.Equal(t, def, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_system.txt"), []byte("updated"), 0600))

	cached, err := store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)
	assert.NotEqual(t, "updated", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)
	assert.Equal(t, "updated", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_system.txt"), []byte("mine"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptClassify)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "classify_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptClassify)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestPromptStore_Watch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(name string) { reloaded <- name })
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_system.txt"), []byte("edited"), 0600))

	select {
	case name := <-reloaded:
		assert.Equal(t, "classify_system.txt", name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	prompt, err := store.Load(driven.PromptClassifySystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", prompt)

	cancel()
	assert.NoError(t, <-done)
}
