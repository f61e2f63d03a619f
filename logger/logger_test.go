package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewZapLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := NewZapLogger(Options{Level: "debug", File: path})
	require.NoError(t, err)

	l.Info("cycle_completed", String("symbol", "BTC/USDT"), Float64("price", 43000))
	l.Error("cycle_failed", Since(time.Now()), Err(errors.New("boom")))
	l.Info("bot_started", Time("started_at", time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)))
	_ = Sync(l)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"cycle_completed"`)
	require.Contains(t, string(data), `"symbol":"BTC/USDT"`)
	require.Contains(t, string(data), `"error":"boom"`)
	require.Contains(t, string(data), `"elapsed":`)
	require.Contains(t, string(data), `"started_at":"2024-12-02T09:00:00.000Z"`)
}

func TestNewZapLoggerFallsBackToInfo(t *testing.T) {
	l, err := NewZapLogger(Options{Level: "loud"})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Debug("ignored")
	l.Warn("ignored", Int("n", 1))
}

func TestSyncIgnoresNonBufferingLoggers(t *testing.T) {
	require.NoError(t, Sync(struct{ Logger }{NewNop()}))
}
