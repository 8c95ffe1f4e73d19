package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developia-II/feedback-analyzer-backend/internal/config"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &config.Config{LogFormat: "json", LogLevel: "info"}).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger := newLogger(&buf, &config.Config{LogFormat: "text", LogLevel: "warn"})
	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestPrintModels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printModels(&buf, []models.ModelInfo{
		{Name: "gemini-2.0-flash", OwnedBy: "google"},
		{Name: "gemini-2.5-pro"},
	}))
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "gemini-2.0-flash  google")
	assert.Contains(t, out, "gemini-2.5-pro")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["models"])
	assert.NotNil(t, rootCmd.Flags().Lookup("port"))
	assert.NotNil(t, serveCmd.Flags().Lookup("reset-admin-password"))
}
