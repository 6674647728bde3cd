package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	t.Cleanup(func() {
		SetWriter(os.Stdout)
		SetLevel("INFO")
		SetFormat("text")
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)
	SetLevel("warn")

	Debug("hidden")
	Info("hidden")
	Warn("shown %d", 1)
	Error("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 1")
	assert.Contains(t, out, "[ERROR] shown 2")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetFormat("json")

	Info("saved %s", "a.sol")

	var line map[string]string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "saved a.sol", line["msg"])
	assert.NotEmpty(t, line["time"])
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.log")
	require.NoError(t, SetOutput(path))
	t.Cleanup(func() { _ = SetOutput("stdout") })

	Info("to file")
	require.NoError(t, SetOutput("stderr"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(data)), "[INFO] to file"))
}

func TestSetOutputBadPath(t *testing.T) {
	err := SetOutput(filepath.Join(t.TempDir(), "missing", "dir", "ws.log"))
	assert.Error(t, err)
}
