package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	// No I/O until first Load.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ragbank", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptQA)
	require.NoError(t, err)

	for _, f := range []string{"qa.txt", "summary_context.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_DefaultQAHasPlaceholders(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.Contains(t, prompt, "{context}")
	assert.Contains(t, prompt, "{question}")
	assert.Contains(t, prompt, "No lo sé")
	assert.Contains(t, prompt, "mismo idioma")
}

func TestPromptStore_Load_UserEdit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptQA)
	require.NoError(t, err)

	custom := "Contexto: {context}\nPregunta: {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa.txt"), []byte(custom+"\n"), 0600))

	// Cached until Reload.
	cached, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.NotEqual(t, custom, cached)

	store.Reload()
	got, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa.txt"), []byte("  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptQA)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptQA)
	assert.Equal(t, want, got)
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	got, err := store.Load(driven.PromptSummaryContext)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptSummaryContext)
	assert.Equal(t, want, got)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptQA)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
