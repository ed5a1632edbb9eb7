package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonomal/HostlistsRegistry/pkg/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("json to writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "warn",
			Format: "json",
			Writer: buf,
		})

		logger.Info().Msg("hidden")
		logger.Warn().Msg("restored")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), "restored")
	})

	t.Run("auto format on a buffer is json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Writer: buf})
		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), `"message":"hello"`)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
		})
		logger.Debug().Msg("to file")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "to file")
		assert.Contains(t, string(content), "caller")
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(nil)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithOperation(ctx, "restore")
	ctx = logging.WithServicesDir(ctx, "services")

	logging.FromContext(ctx).Warn().Msg("test message")

	testLogger.AssertContains(t, `"operation":"restore"`)
	testLogger.AssertContains(t, `"services_dir":"services"`)
	assert.Equal(t, 1, testLogger.CountLevel(zerolog.WarnLevel))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled on purpose
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Info().Msg("one")
	tl.Error().Msg("two")

	assert.Equal(t, 2, tl.Count())
	assert.Equal(t, 1, tl.CountLevel(zerolog.ErrorLevel))
	tl.AssertNotContains(t, "three")

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}

func TestConstructors(t *testing.T) {
	t.Run("nop discards", func(t *testing.T) {
		logger := logging.NewNop()
		require.NotNil(t, logger)
		assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.New(buf)
		logger.Warn().Str("service", "youtube").Msg("restored")
		assert.Contains(t, buf.String(), `"service":"youtube"`)
	})

	t.Run("console without color", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.NewConsole(buf, true)
		logger.Warn().Msg("restored")
		assert.Contains(t, buf.String(), "restored")
		assert.NotContains(t, buf.String(), "\x1b[")
	})
}
