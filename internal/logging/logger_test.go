package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("debug", "json", "test", &buf)
		logger.Debug().Str("k", "v").Msg("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["message"])
		assert.Equal(t, "test", line["env"])
		assert.Equal(t, "v", line["k"])
	})

	t.Run("InvalidLevelDefaultsToInfo", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("nope", "json", "test", &buf)
		logger.Debug().Msg("hidden")
		assert.Empty(t, buf.String())
		logger.Info().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Console", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("info", "console", "test", &buf)
		logger.Info().Msg("pretty")
		assert.Contains(t, buf.String(), "pretty")
	})
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "json", "test", &buf)
	ctx := logger.WithContext(context.Background())
	FromContext(ctx).Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")

	// no logger attached: must not panic
	FromContext(context.Background()).Info().Msg("dropped")
}
