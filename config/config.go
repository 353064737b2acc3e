package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitURL string

	LogLevel  string
	LogFormat string

	Booking BookingRules
	Captcha CaptchaConfig

	LockTTL time.Duration
}

// BookingRules are the configurable pieces of the validator. They are
// configuration rather than constants so deployments can tune them without
// a rebuild.
type BookingRules struct {
	// HorizonDays is the farthest bookable date, in days from today.
	HorizonDays int
	// SameDayCutoffHour allows same-day requests submitted before this hour
	// (server clock). Zero disables same-day booking entirely.
	SameDayCutoffHour int
	// BlackoutDates are calendar dates (YYYY-MM-DD) closed for booking.
	BlackoutDates  map[string]bool
	PhoneMinDigits int
	PhoneMaxDigits int
}

type CaptchaConfig struct {
	// Enabled switches verification off for local development.
	Enabled bool
	// DefaultKind is used when the request does not name one.
	DefaultKind string
	// VerifyURLs maps a captcha kind to its verification endpoint.
	VerifyURLs map[string]string
	Secret     string
	Timeout    time.Duration
}

func Load() *Config {
	// Missing .env is fine: containers pass real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "reservation_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitURL: getEnv("RABBITMQ_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LockTTL: time.Duration(getEnvInt("LOCK_TTL_MS", 3000)) * time.Millisecond,
	}

	cfg.Booking = BookingRules{
		HorizonDays:       getEnvInt("BOOKING_HORIZON_DAYS", 14),
		SameDayCutoffHour: getEnvInt("SAME_DAY_CUTOFF_HOUR", 0),
		BlackoutDates:     parseDateSet(getEnv("BOOKING_BLACKOUT_DATES", "")),
		PhoneMinDigits:    getEnvInt("PHONE_MIN_DIGITS", 7),
		PhoneMaxDigits:    getEnvInt("PHONE_MAX_DIGITS", 15),
	}

	cfg.Captcha = CaptchaConfig{
		Enabled:     getEnv("CAPTCHA_ENABLED", "false") == "true",
		DefaultKind: getEnv("CAPTCHA_DEFAULT_KIND", "recaptcha"),
		VerifyURLs:  parseKindURLs(getEnv("CAPTCHA_VERIFY_URLS", "")),
		Secret:      getEnv("CAPTCHA_SECRET", ""),
		Timeout:     time.Duration(getEnvInt("CAPTCHA_TIMEOUT_MS", 5000)) * time.Millisecond,
	}

	return cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// parseDateSet parses a comma-separated list of YYYY-MM-DD dates. Entries
// that do not parse are dropped.
func parseDateSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", part); err == nil {
			out[part] = true
		}
	}
	return out
}

// parseKindURLs parses "kind=url,kind=url" pairs.
func parseKindURLs(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] != "" && kv[1] != "" {
			out[kv[0]] = kv[1]
		}
	}
	return out
}
