package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"default"}, cfg.Products)
	assert.Equal(t, "https://updates.vmsproxy.com", cfg.FeedBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60, cfg.IntervalMinutes)
	assert.Empty(t, cfg.PublicationTypes)
	assert.Equal(t, int64(0), cfg.DefaultChatID)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("PRODUCTS", "default, metavms,,digitalwatchdog")
	t.Setenv("PUBLICATION_TYPES", "release,rc")
	t.Setenv("ALLOWED_USER_IDS", "1, 2,x")
	t.Setenv("DEFAULT_CHAT_ID", "-1001234567890")
	t.Setenv("POLL_INTERVAL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "metavms", "digitalwatchdog"}, cfg.Products)
	assert.Equal(t, []int64{1, 2}, cfg.AllowedUserIDs)
	assert.Equal(t, int64(-1001234567890), cfg.DefaultChatID)
	assert.Equal(t, 15, cfg.IntervalMinutes)
	assert.Equal(t, []string{"release", "rc"}, cfg.PublicationTypes)
}

func TestLoadInvalidChatID(t *testing.T) {
	t.Setenv("DEFAULT_CHAT_ID", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.TelegramToken = "token"
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}
