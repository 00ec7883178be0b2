package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// setupTestLogger initializes the global logger to write to a buffer.
func setupTestLogger(cfg config.LoggerConfig) *bytes.Buffer {
	buf := new(bytes.Buffer)
	initializeLogger(cfg, zapcore.AddSync(buf))
	return buf
}

// resetGlobalLogger restores the package singletons between tests.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitializeLogger(t *testing.T) {
	t.Run("console logger colorizes levels", func(t *testing.T) {
		resetGlobalLogger()
		buf := setupTestLogger(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "logintest",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Info("scenario started")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "scenario started")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
	})

	t.Run("json logger", func(t *testing.T) {
		resetGlobalLogger()
		buf := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "harness"})

		GetLogger().Warn("screenshot captured", zap.String("scenario", "Successful login"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "harness", entry["logger"])
		assert.Equal(t, "screenshot captured", entry["msg"])
		assert.Equal(t, "Successful login", entry["scenario"])
	})

	t.Run("writes to a log file", func(t *testing.T) {
		resetGlobalLogger()
		path := filepath.Join(t.TempDir(), "harness.log")

		setupTestLogger(config.LoggerConfig{Level: "debug", Format: "json", LogFile: path, MaxSize: 1})
		GetLogger().Error("session release failed")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "session release failed")
	})

	t.Run("only initializes once", func(t *testing.T) {
		resetGlobalLogger()
		buf1 := setupTestLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "First"})
		logger1 := GetLogger()

		buf2 := setupTestLogger(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "Second"})
		logger2 := GetLogger()

		assert.Equal(t, logger1, logger2)
		logger2.Info("test message")
		Sync()

		assert.Contains(t, buf1.String(), "First")
		assert.NotContains(t, buf1.String(), "Second")
		assert.Empty(t, buf2.String())
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback when not initialized", func(t *testing.T) {
		resetGlobalLogger()
		require.NotNil(t, GetLogger())
	})

	t.Run("returns the stored logger", func(t *testing.T) {
		resetGlobalLogger()
		setupTestLogger(config.LoggerConfig{Level: "info"})
		assert.Equal(t, globalLogger.Load(), GetLogger())
	})
}

func TestForScenario(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := ForScenario(zap.New(core), "login;2", "Empty username")

	logger.Info("step")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "login;2", fields["scenario_id"])
	assert.Equal(t, "Empty username", fields["scenario"])
}
