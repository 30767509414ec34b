package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handover-launcher/internal/config"
)

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, WARN)
	t.Cleanup(Close)

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "ERROR: ")
	assert.Contains(t, out, "logger_test.go")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("Debug"))
	assert.Equal(t, INFO, ParseLevel(" info "))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, WARN, ParseLevel("verbose"))
}

func TestInitLoggerWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	InitLogger(&config.LogConfig{Level: "info"}, dir, false)
	Infof("server started on %d", 8500)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, "launcher.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "server started on 8500")

	// after Close nothing is written and nothing panics
	Infof("dropped")
}
