package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	AllowedOrigin string

	LogLevel string
	LogJSON  bool

	BoardRows   int
	BoardCols   int
	TurnBudget  time.Duration
	FinishGrace time.Duration
	AIMoveDelay time.Duration

	LeaderboardCacheTTL time.Duration
	ClientRateLimit     float64
	ClientRateBurst     int
}

const defaultJWTSecret = "colour-wars-dev-secret-change-in-production"

// Load reads the optional .env files, then the process environment.
func Load(envFiles ...string) *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ALLOWED_ORIGIN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("BOARD_ROWS", 7)
	v.SetDefault("BOARD_COLS", 7)
	v.SetDefault("TURN_BUDGET", 300*time.Second)
	v.SetDefault("FINISH_GRACE", 5*time.Second)
	v.SetDefault("AI_MOVE_DELAY", 700*time.Millisecond)
	v.SetDefault("LEADERBOARD_CACHE_TTL", 30*time.Second)
	v.SetDefault("CLIENT_RATE_LIMIT", 20.0)
	v.SetDefault("CLIENT_RATE_BURST", 40)

	cfg := &Config{
		AppPort:             v.GetString("APP_PORT"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		AllowedOrigin:       v.GetString("ALLOWED_ORIGIN"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogJSON:             v.GetString("LOG_FORMAT") == "json",
		BoardRows:           v.GetInt("BOARD_ROWS"),
		BoardCols:           v.GetInt("BOARD_COLS"),
		TurnBudget:          v.GetDuration("TURN_BUDGET"),
		FinishGrace:         v.GetDuration("FINISH_GRACE"),
		AIMoveDelay:         v.GetDuration("AI_MOVE_DELAY"),
		LeaderboardCacheTTL: v.GetDuration("LEADERBOARD_CACHE_TTL"),
		ClientRateLimit:     v.GetFloat64("CLIENT_RATE_LIMIT"),
		ClientRateBurst:     v.GetInt("CLIENT_RATE_BURST"),
	}

	// the simulator needs room for the inset seeds
	if cfg.BoardRows < 4 {
		cfg.BoardRows = 7
	}
	if cfg.BoardCols < 4 {
		cfg.BoardCols = 7
	}
	return cfg
}

// GuestMode reports whether the server runs without the account database.
func (c *Config) GuestMode() bool {
	return c.DatabaseURL == ""
}
