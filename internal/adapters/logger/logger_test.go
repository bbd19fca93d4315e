package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envup/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	l, ok := logger.New().(*logger.Logger)
	require.True(t, ok)

	buf := new(bytes.Buffer)
	l.SetOutput(buf)
	return l, buf
}

func TestLogger_Info(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Info("creating environment")
	assert.Contains(t, buf.String(), "creating environment")
}

func TestLogger_Warn(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Warn("manifest is stale")
	assert.Contains(t, buf.String(), "manifest is stale")
}

func TestLogger_Error_NilIsNoop(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_Error_RendersCauseChain(t *testing.T) {
	l, buf := newTestLogger(t)

	err := zerr.Wrap(zerr.New("connection refused"), "failed to make NixHub API request")
	l.Error(err)

	out := buf.String()
	assert.Contains(t, out, "Error: failed to make NixHub API request")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "connection refused")
}

func TestLogger_Error_PlainError(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Error(assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "Error: "+assert.AnError.Error())
	assert.NotContains(t, out, "Caused by:")
}

func TestLogger_JSONMode(t *testing.T) {
	l, buf := newTestLogger(t)
	l.SetJSON(true)

	l.Error(zerr.New("boom"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"error"`)
}
