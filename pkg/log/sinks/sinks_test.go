package sinks_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_KeepsEmissionOrder(t *testing.T) {
	mem := sinks.NewMemorySink()
	logger := log.NewLogger(log.NewRouter(mem))

	logger.Info().Msg("first")
	logger.Warn().Msg("second")
	logger.Error().Str("error", "boom").Msg("third")

	lines := mem.Lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], " - INFO - first")
	assert.Contains(t, lines[1], " - WARN - second")
	assert.Contains(t, lines[2], " - ERROR - third: boom")

	lines[0] = "mutated"
	assert.NotEqual(t, "mutated", mem.Lines()[0])
}

func TestMemorySink_MinLevel(t *testing.T) {
	mem := sinks.NewMemorySink()
	mem.MinLevel = types.InfoLevel
	logger := log.NewLogger(log.NewRouter(mem))

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	lines := mem.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestMemorySink_Append(t *testing.T) {
	mem := sinks.NewMemorySink()
	require.NoError(t, mem.Write(&log.LogEvent{Level: types.InfoLevel, Message: "a", Timestamp: time.Now()}))
	mem.Append("raw line")
	assert.Equal(t, "raw line", mem.Lines()[1])
}

func TestFileSink_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "orvi.jsonl")
	fs, err := sinks.NewFileSink(path)
	require.NoError(t, err)

	logger := log.NewLogger(log.NewRouter(fs))
	logger.Info().Str("sequence", "login").Msg("attempt started")
	require.NoError(t, fs.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var entry map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "attempt started", entry["message"])
	assert.Equal(t, "login", entry["sequence"])
}

func TestConsoleSink_Labels(t *testing.T) {
	out := &bytes.Buffer{}
	c := sinks.NewConsoleSinkTo(out)
	require.NoError(t, c.Write(&log.LogEvent{
		Level:     types.WarnLevel,
		Message:   "optional step failed",
		Fields:    map[string]any{"sequence": "payments", "kind": "click"},
		Timestamp: time.Now(),
	}))
	assert.Contains(t, out.String(), "payments/click")
	assert.Contains(t, out.String(), "optional step failed")
}
