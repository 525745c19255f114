package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://stockroom@localhost/stockroom")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.StockAlertThreshold)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.NotEmpty(t, cfg.CSRFSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestLoadConfigProductionSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://stockroom@localhost/stockroom")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	require.ErrorIs(t, err, shared.ErrConfiguration)

	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadThreshold(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://stockroom@localhost/stockroom")
	t.Setenv("STOCK_ALERT_THRESHOLD", "-1")

	_, err := LoadConfig()
	require.ErrorIs(t, err, shared.ErrConfiguration)

	t.Setenv("STOCK_ALERT_THRESHOLD", "lots")
	_, err = LoadConfig()
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestSMTPConfigFallsBackToLogin(t *testing.T) {
	cfg := &Config{EmailHostUser: "me@example.com", EmailHostPassword: "pw", SMTPHost: "smtp.example.com", SMTPPort: 587}
	smtp := cfg.SMTP()
	assert.Equal(t, "me@example.com", smtp.To)
	assert.Equal(t, "pw", smtp.Password)

	cfg.AlertReceiver = "owner@example.com"
	assert.Equal(t, "owner@example.com", cfg.SMTP().To)
}

func TestLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "nonsense"}).Level())
}
