package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AccessSecret       string
	RefreshSecret      string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	ClientURL          string
	CookieSecure       bool
	HeartbeatInterval  time.Duration
	HeartbeatTimeout   time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("load .env: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		AccessSecret:       os.Getenv("JWT_ACCESS_SECRET"),
		RefreshSecret:      os.Getenv("JWT_REFRESH_SECRET"),
		AccessTTL:          readDurationSeconds("EXPIRE_JWT", 900),
		RefreshTTL:         readDurationSeconds("REFRESH_EXPIRE_JWT", 604800),
		ClientURL:          os.Getenv("CLIENT_URL"),
		CookieSecure:       readBool("COOKIE_SECURE", false),
		HeartbeatInterval:  readDurationSeconds("HEARTBEAT_INTERVAL_SECONDS", 30),
		HeartbeatTimeout:   readDurationSeconds("HEARTBEAT_TIMEOUT_SECONDS", 5),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
