package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
		assert.NotNil(t, l.Logger)
	})

	t.Run("creates with custom config", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "debug", Format: "json", Output: buf})
		assert.NotNil(t, l)

		l.Info("test message")
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("creates text format logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("test message")
		output := buf.String()
		assert.Contains(t, output, "test message")
		// Text format should not be JSON
		assert.False(t, strings.HasPrefix(output, "{"))
	})
}

func TestLogger_Levels(t *testing.T) {
	t.Run("debug suppressed at info level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "json", Output: buf})

		l.Debug("hidden")
		assert.Empty(t, buf.String())

		l.Warn("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "bogus", Format: "json", Output: buf})

		l.Info("still works")
		assert.Contains(t, buf.String(), "still works")
	})
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "info", Format: "json", Output: buf})

	l.With("component", "quota").Info("attached")
	assert.Contains(t, buf.String(), `"component":"quota"`)
}

func TestContextLogger(t *testing.T) {
	t.Run("round trips through context", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "json", Output: buf})

		ctx := ContextWithLogger(context.Background(), l)
		FromContext(ctx).Info("from context")
		assert.Contains(t, buf.String(), "from context")
	})

	t.Run("returns default when absent", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotNil(t, l)
	})
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger(&ZapConfig{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	assert.NotNil(t, l)

	l, err = NewZapLogger(nil)
	assert.NoError(t, err)
	assert.NotNil(t, l)
}
