package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	buf := new(bytes.Buffer)
	prev := SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(prev)
		_ = Init(false, "")
	})
	return buf
}

func TestDebugIsSilentUnlessEnabled(t *testing.T) {
	buf := capture(t)

	require.NoError(t, Init(false, ""))
	Debug("[DEBUG] hidden %d\n", 1)
	Info("[INFO] shown\n")
	assert.Equal(t, "[INFO] shown\n", buf.String())

	buf.Reset()
	require.NoError(t, Init(true, ""))
	Debug("[DEBUG] visible %d\n", 2)
	assert.Equal(t, "[DEBUG] visible 2\n", buf.String())
}

func TestLogFileReceivesStructuredRecords(t *testing.T) {
	capture(t)
	path := filepath.Join(t.TempDir(), "cli.log")

	require.NoError(t, Init(false, path))
	Warn("[WARN] tsconfig.json is malformed\n")
	Debug("[DEBUG] only in file\n")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tsconfig.json is malformed"`)
	assert.Contains(t, string(data), `"level":"warn"`)
	assert.Contains(t, string(data), `"msg":"only in file"`)
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "hello", plain("[INFO] hello\n"))
	assert.Equal(t, "[not a level tag] x", plain("[not a level tag] x"))
	assert.Equal(t, "no tag", plain("no tag"))
}
