package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	EventsDir         string
	YandexUsername    string
	YandexAppPassword string
	YandexCalendarURL string
	Timezone          *time.Location
	DatabasePath      string
	SyncSchedule      string
	TelegramToken     string
	TelegramChatID    int64
	LogLevel          string
}

func Load() (*Config, error) {
	eventsDir := os.Getenv("VAULTCAL_EVENTS_DIR")
	if eventsDir == "" {
		return nil, fmt.Errorf("VAULTCAL_EVENTS_DIR is required")
	}

	username := os.Getenv("YANDEX_USERNAME")
	if username == "" {
		return nil, fmt.Errorf("YANDEX_USERNAME is required")
	}

	password := os.Getenv("YANDEX_APP_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("YANDEX_APP_PASSWORD is required")
	}

	calendarURL := os.Getenv("YANDEX_CALENDAR_URL")
	if calendarURL == "" {
		return nil, fmt.Errorf("YANDEX_CALENDAR_URL is required")
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Moscow"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/vaultcal.db"
	}

	schedule := os.Getenv("SYNC_SCHEDULE")
	if schedule == "" {
		schedule = "*/15 * * * *"
	}

	var chatID int64
	if c := os.Getenv("TELEGRAM_CHAT_ID"); c != "" {
		chatID, err = strconv.ParseInt(c, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a number: %w", err)
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		EventsDir:         eventsDir,
		YandexUsername:    username,
		YandexAppPassword: password,
		YandexCalendarURL: calendarURL,
		Timezone:          tz,
		DatabasePath:      dbPath,
		SyncSchedule:      schedule,
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    chatID,
		LogLevel:          logLevel,
	}, nil
}
