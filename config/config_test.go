package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VAULTCAL_EVENTS_DIR", "/vault/events")
	t.Setenv("YANDEX_USERNAME", "user@yandex.ru")
	t.Setenv("YANDEX_APP_PASSWORD", "app-password")
	t.Setenv("YANDEX_CALENDAR_URL", "https://caldav.yandex.ru/calendars/user/events-1/")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("SYNC_SCHEDULE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/vault/events", cfg.EventsDir)
	assert.Equal(t, "user@yandex.ru", cfg.YandexUsername)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone.String())
	assert.Equal(t, "./data/vaultcal.db", cfg.DatabasePath)
	assert.Equal(t, "*/15 * * * *", cfg.SyncSchedule)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.TelegramChatID)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("VAULTCAL_EVENTS_DIR", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Not/AZone")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadTelegramChatID(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_CHAT_ID", "123456")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(123456), cfg.TelegramChatID)

	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}
