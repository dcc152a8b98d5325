package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymind/internal/config"
	"moneymind/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf, log.ComponentWorker)

	logger.Info("dropped")
	logger.Warn("kept", log.FieldUserID, 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), buf.String())
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, log.ComponentWorker, rec[log.FieldComponent])
	assert.Equal(t, 7.0, rec[log.FieldUserID])
	assert.Same(t, logger.Logger, slog.Default())
}

func TestSetupLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "verbose"}, &buf, log.ComponentApp)
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestOpenBackend(t *testing.T) {
	res, err := OpenBackend(context.Background(), log.Discard(), &config.Config{DataBackend: "memory"})
	require.NoError(t, err)
	assert.NoError(t, res.Store.Ping(context.Background()))
	assert.NoError(t, res.Cleanup())

	_, err = OpenBackend(context.Background(), log.Discard(), &config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
}

func TestShutdownContext(t *testing.T) {
	ctx, cancel := ShutdownContext(context.Background(), log.Discard())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
