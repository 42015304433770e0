package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)

	l.Info("document ingested", "document_id", "doc-1", "pages", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "document ingested", entry["message"])
	assert.Equal(t, "doc-1", entry["document_id"])
	assert.EqualValues(t, 3, entry["pages"])
}

func TestLogger_ErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", "json", &buf)

	l.Error("store write failed", errors.New("disk full"), "document_id", "doc-1")

	assert.Contains(t, buf.String(), `"error":"disk full"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", "json", &buf)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestLogger_OddFieldsDropTrailingKey(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", "json", &buf)

	l.Info("odd", "a", 1, "dangling")

	assert.Contains(t, buf.String(), `"a":1`)
	assert.NotContains(t, buf.String(), "dangling")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLogLevel("warning").String())
	assert.Equal(t, "info", parseLogLevel("nonsense").String())
}
