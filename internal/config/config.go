package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minSecretBytes = 32

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    slog.Level

	Auth AuthConfig
	HTTP HTTPConfig
	DB   DBConfig
}

type AuthConfig struct {
	JWTSecret          []byte
	AccessTokenTTL     time.Duration
	BcryptCost         int
	LoginRatePerMinute float64
	LoginRateBurst     int
}

type HTTPConfig struct {
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	SlowQuery    time.Duration
	MaxOpenConns int
}

// LoadFromEnv reads the process environment. Callers should run Validate
// before using the result.
func LoadFromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Port:        getenv("PORT", "5050"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Auth: AuthConfig{
			JWTSecret:          []byte(os.Getenv("JWT_SECRET")),
			AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 180*time.Minute, &errs),
			BcryptCost:         getInt("BCRYPT_COST", bcrypt.DefaultCost, &errs),
			LoginRatePerMinute: getFloat("LOGIN_RATE_PER_MINUTE", 10, &errs),
			LoginRateBurst:     getInt("LOGIN_RATE_BURST", 5, &errs),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second, &errs),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		},
		DB: DBConfig{
			SlowQuery:    time.Duration(getInt("DB_SLOW_QUERY_MS", 100, &errs)) * time.Millisecond,
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 20, &errs),
		},
	}

	level, err := parseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if len(c.Auth.JWTSecret) < minSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretBytes)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be > 0")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.LoginRatePerMinute < 0 || c.Auth.LoginRateBurst < 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be >= 0")
	}
	if c.DB.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}
	if c.HTTP.RequestTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and HTTP_SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
