package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken    string
	Products         []string
	FeedBaseURL      string
	HTTPTimeout      time.Duration
	IntervalMinutes  int
	PublicationTypes []string
	DefaultChatID    int64
	AllowedUserIDs   []int64
	TimeZone         string
	DBPath           string
	MetricsAddr      string
	LogLevel         string
	Env              string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PRODUCTS", "default")
	v.SetDefault("FEED_BASE_URL", "https://updates.vmsproxy.com")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("POLL_INTERVAL_MINUTES", 60)
	v.SetDefault("PUBLICATION_TYPES", "")
	v.SetDefault("DEFAULT_CHAT_ID", "0")
	v.SetDefault("ALLOWED_USER_IDS", "")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("DB_PATH", "./releases.db")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "development")

	cfg := &Config{
		TelegramToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
		Products:         splitList(v.GetString("PRODUCTS")),
		FeedBaseURL:      v.GetString("FEED_BASE_URL"),
		HTTPTimeout:      time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		IntervalMinutes:  v.GetInt("POLL_INTERVAL_MINUTES"),
		PublicationTypes: splitList(v.GetString("PUBLICATION_TYPES")),
		AllowedUserIDs:   parseUserIDs(v.GetString("ALLOWED_USER_IDS")),
		TimeZone:         v.GetString("TIMEZONE"),
		DBPath:           v.GetString("DB_PATH"),
		MetricsAddr:      v.GetString("METRICS_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		Env:              v.GetString("ENV"),
	}

	chatID, err := strconv.ParseInt(v.GetString("DEFAULT_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_CHAT_ID: %w", err)
	}
	cfg.DefaultChatID = chatID

	return cfg, nil
}

// Validate checks the settings needed by the long-running notifier
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("required environment variable TELEGRAM_BOT_TOKEN is not set")
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("PRODUCTS must list at least one product")
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MINUTES must be positive, got %d", c.IntervalMinutes)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range splitList(s) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil && id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
