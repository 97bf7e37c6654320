package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseGate(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("hidden %d", 3)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	defer SetVerbose(false)
	Debug("shown %d", 1)
	Info("shown %d", 2)
	Warn("shown %d", 3)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] shown 1")
	assert.Contains(t, out, "[INFO] shown 2")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.True(t, IsVerbose())
}
