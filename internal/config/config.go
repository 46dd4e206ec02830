// internal/config/config.go
//
// Runtime settings for the server and the bot, read from the environment.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes all runtime settings for the server and the bot.
// It is loaded once in main, validated, and passed down explicitly.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Level  string // zerolog level name
		Format string // text|json
	}

	HTTP struct {
		Addr              string
		ClientOrigin      string
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Store struct {
		Driver        string // memory|sqlite|postgres
		SQLitePath    string
		DatabaseURL   string
		RunMigrations bool
	}

	Redis struct {
		Addr     string // empty disables the leaderboard cache
		DB       int
		CacheTTL time.Duration
	}

	Auth struct {
		Secret         string
		TokenTTL       time.Duration
		InitDataMaxAge time.Duration
	}

	Telegram struct {
		Token   string
		GameURL string
	}

	Game struct {
		BackendURL      string // empty: submit scores to the local store
		WordsDir        string
		RoundSeconds    int
		TxDivisor       int // end screen
		SubmitTxDivisor int // tx_earned sent to the backend
		WrongEndDelay   time.Duration
		SkipDelay       time.Duration
		SubmitTimeout   time.Duration
	}
}

const defaultSecret = "dev-secret-change-me"

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Level = envString("LOG_LEVEL", "info")
	c.Log.Format = envString("LOG_FORMAT", "text")

	port := envString("PORT", "8080")
	c.HTTP.Addr = envString("HTTP_ADDR", ":"+port)
	c.HTTP.ClientOrigin = envString("CLIENT_ORIGIN", "http://localhost:5173")
	c.HTTP.ReadHeaderTimeout = envDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	c.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 0)
	c.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 0)
	c.HTTP.IdleTimeout = envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	c.Store.Driver = strings.ToLower(envString("STORE_DRIVER", "sqlite"))
	c.Store.SQLitePath = envString("SQLITE_PATH", "./wordscramble.db")
	c.Store.DatabaseURL = envString("DATABASE_URL", "")
	c.Store.RunMigrations = envBool("RUN_MIGRATIONS", true)

	c.Redis.Addr = envString("REDIS_ADDR", "")
	c.Redis.DB = envInt("REDIS_DB", 0)
	c.Redis.CacheTTL = envDuration("LEADERBOARD_CACHE_TTL", 30*time.Second)

	c.Auth.Secret = envString("JWT_SECRET", defaultSecret)
	c.Auth.TokenTTL = envDuration("JWT_TTL", 24*time.Hour)
	c.Auth.InitDataMaxAge = envDuration("INIT_DATA_MAX_AGE", 24*time.Hour)

	c.Telegram.Token = envString("TELEGRAM_TOKEN", "")
	c.Telegram.GameURL = envString("GAME_URL", "")

	c.Game.BackendURL = strings.TrimRight(envString("BACKEND_URL", ""), "/")
	c.Game.WordsDir = envString("WORDS_DIR", "")
	c.Game.RoundSeconds = envInt("ROUND_SECONDS", 60)
	c.Game.TxDivisor = envInt("TX_DIVISOR", 10)
	c.Game.SubmitTxDivisor = envInt("SUBMIT_TX_DIVISOR", 20)
	c.Game.WrongEndDelay = envDuration("WRONG_END_DELAY", 500*time.Millisecond)
	c.Game.SkipDelay = envDuration("SKIP_DELAY", time.Second)
	c.Game.SubmitTimeout = envDuration("SUBMIT_TIMEOUT", 10*time.Second)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is empty")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is empty")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER=%q (want memory|sqlite|postgres)", c.Store.Driver)
	}
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if c.Env != "dev" && c.Auth.Secret == defaultSecret {
		return fmt.Errorf("refuse to run with default JWT_SECRET in %s", c.Env)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	if c.Game.RoundSeconds <= 0 {
		return fmt.Errorf("ROUND_SECONDS must be positive, got %d", c.Game.RoundSeconds)
	}
	if c.Game.TxDivisor <= 0 {
		return fmt.Errorf("TX_DIVISOR must be positive, got %d", c.Game.TxDivisor)
	}
	if c.Game.SubmitTxDivisor <= 0 {
		return fmt.Errorf("SUBMIT_TX_DIVISOR must be positive, got %d", c.Game.SubmitTxDivisor)
	}
	return nil
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_TOKEN is empty")
	}
	if c.Telegram.GameURL == "" {
		return errors.New("GAME_URL is empty")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
