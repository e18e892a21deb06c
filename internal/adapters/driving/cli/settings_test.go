package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsSet(t *testing.T) {
	_, _, settings := setupTestServices(t)
	settings.On("Set", "pipeline.chunk_size", "1500").Return(nil)

	out, err := executeCommand(t, "settings", "set", "pipeline.chunk_size", "1500")

	require.NoError(t, err)
	assert.Contains(t, out, "pipeline.chunk_size = 1500")
	settings.AssertExpectations(t)
}

func TestSettingsSet_MasksSecrets(t *testing.T) {
	_, _, settings := setupTestServices(t)
	settings.On("Set", "llm.api_key", "sk-abcdefghijkl").Return(nil)
	settings.On("Set", "store.dsn", "postgres://u:p@db/bank").Return(nil)

	out, err := executeCommand(t, "settings", "set", "llm.api_key", "sk-abcdefghijkl")
	require.NoError(t, err)
	assert.Contains(t, out, "llm.api_key = sk-a...ijkl")
	assert.NotContains(t, out, "sk-abcdefghijkl")

	out, err = executeCommand(t, "settings", "set", "store.dsn", "postgres://u:p@db/bank")
	require.NoError(t, err)
	assert.NotContains(t, out, "u:p@db")
}

func TestSettingsSet_Rejected(t *testing.T) {
	_, _, settings := setupTestServices(t)
	settings.On("Set", "pipeline.chunk_size", "-1").Return(domain.ErrConfiguration)

	_, err := executeCommand(t, "settings", "set", "pipeline.chunk_size", "-1")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsShow(t *testing.T) {
	_, _, settings := setupTestServices(t)
	current := domain.DefaultAppSettings()
	settings.On("Get").Return(&current, nil)
	settings.On("IndexState").Return("stalefp", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	out, err := executeCommand(t, "settings", "show")

	require.NoError(t, err)
	for _, section := range []string{"[Embedding]", "[LLM]", "[Pipeline]", "[Data]", "[Store]", "[Index]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "Chunk size: 2000")
	assert.Contains(t, out, "stalefp (stale, will rebuild)")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_NoIndex(t *testing.T) {
	_, _, settings := setupTestServices(t)
	current := domain.DefaultAppSettings()
	settings.On("Get").Return(&current, nil)
	settings.On("IndexState").Return("", time.Time{})

	out, err := executeCommand(t, "settings")

	require.NoError(t, err)
	assert.NotContains(t, out, "[Index]")
}

func TestSettingsShow_WiringError(t *testing.T) {
	setupTestServices(t)
	settingsService = nil
	wireSettings = func() error { return errors.New("config unreadable") }

	_, err := executeCommand(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config unreadable")
}

func TestSettingsLLM_Interactive(t *testing.T) {
	_, _, settings := setupTestServices(t)
	orig := settingsInput
	settingsInput = strings.NewReader("1\n\n")
	t.Cleanup(func() { settingsInput = orig })
	settings.On("SetLLMProvider", domain.AIProviderOllama, "llama3", "").Return(nil)
	settings.On("ValidateLLMConfig").Return(nil)

	out, err := executeCommand(t, "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	settings.AssertExpectations(t)
}

func TestSettingsEmbedding_MissingAPIKey(t *testing.T) {
	setupTestServices(t)
	orig := settingsInput
	settingsInput = strings.NewReader("3\n\n\n")
	t.Cleanup(func() { settingsInput = orig })

	_, err := executeCommand(t, "settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
