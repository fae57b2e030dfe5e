package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken string
	OwnerID  int64

	// MySQLURI selects MySQL when set; otherwise the store uses a SQLite
	// file at DBPath.
	MySQLURI string
	DBPath   string

	// HTTPAddr enables the companion web API when non-empty.
	HTTPAddr string

	Env      string
	BotDebug bool
}

// Load reads configuration from the environment (and a .env file when
// present). It fails when required credentials are missing so the process
// can refuse to start.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		MySQLURI: os.Getenv("MYSQL_URI"),
		DBPath:   getEnv("DB_PATH", "bot.db"),
		HTTPAddr: os.Getenv("HTTP_ADDR"),
		Env:      getEnv("ENV", "production"),
		BotDebug: os.Getenv("BOT_DEBUG") == "1",
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	owner := os.Getenv("OWNER_ID")
	if owner == "" {
		return nil, fmt.Errorf("OWNER_ID environment variable is required")
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_ID must be a numeric Telegram user id: %w", err)
	}
	cfg.OwnerID = id

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
