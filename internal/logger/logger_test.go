package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", true)

	log.Info("hidden")
	log.Warn("visible", "user_id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "visible", record["msg"])
	require.EqualValues(t, 7, record["user_id"])
}

func TestPayloadKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, "document", payloadKind(&models.Message{Document: &models.Document{FileID: "d"}}))
	require.Equal(t, "photo", payloadKind(&models.Message{Photo: []models.PhotoSize{{FileID: "p"}}}))
	require.Equal(t, "voice", payloadKind(&models.Message{Voice: &models.Voice{FileID: "v"}}))
	require.Equal(t, "text", payloadKind(&models.Message{Text: "hi"}))
	require.Equal(t, "other", payloadKind(&models.Message{}))
}

func TestGocronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	gl := NewGocronLogger(log)

	gl.Info("tick")
	gl.Debug("tock")
	require.Zero(t, buf.Len())

	gl.Error("job failed", "job", "daily_stats")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "job failed", record["msg"])
	require.Equal(t, "gocron", record["component"])
	require.Equal(t, "daily_stats", record["job"])
}
