package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetVerbose(false)
		_ = Init("warn", FormatConsole)
		SetOutput(os.Stderr)
	})
	return buf
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Debug("embedding %d documents", 3)
	Section("Retrieval")

	out := buf.String()
	assert.Contains(t, out, "embedding 3 documents")
	assert.Contains(t, out, "=== Retrieval ===")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Debug("hidden")
	Section("hidden section")
	Info("also hidden")

	assert.Empty(t, buf.String())
}

func TestWarnAndError_AlwaysShown(t *testing.T) {
	buf := reset(t)

	Warn("skipped %s", "notes.txt")
	Error("failed")

	out := buf.String()
	assert.Contains(t, out, "skipped notes.txt")
	assert.Contains(t, out, "failed")
}

func TestInit_JSON(t *testing.T) {
	buf := reset(t)
	require.NoError(t, Init("info", FormatJSON))

	zap.L().Info("question answered", zap.String("source", "CSV_summary"))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "question answered", entry["msg"])
	assert.Equal(t, "CSV_summary", entry["source"])
}

func TestInit_Invalid(t *testing.T) {
	reset(t)
	assert.Error(t, Init("loud", FormatConsole))
	assert.Error(t, Init("info", "xml"))
}
