package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/starkpulse/auth/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens and the TOTP label

	// HMAC secrets for the two token kinds. Required, at least 32 bytes
	// each, and they must differ; the signer enforces all three at startup.
	AccessTokenSecret  string
	RefreshTokenSecret string

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token / session lifetime (default: 168h)

	MaxLoginAttempts int           // Failures before the account locks (default: 5)
	LockWindow       time.Duration // How long a lock lasts (default: 15m)

	VerificationTTL time.Duration // Email verification token lifetime (default: 24h)
	ResetTTL        time.Duration // Password reset token lifetime (default: 1h)

	// RevokeOnReuse revokes all of a user's sessions when a rotated refresh
	// token is replayed (default: true).
	RevokeOnReuse bool

	DatabaseFile string // Path to the SQLite database file (default: ./auth.db)
	PepperFile   string // Path to the password pepper file (default: ./pepper)

	// Outbound email. All three must be set for real delivery; otherwise
	// emails go to the log.
	ResendAPIKey string
	MailFrom     string
	AppURL       string

	CORSOrigins []string // Allowed CORS origins (default: *)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	return Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "starkpulse-auth"),

		AccessTokenSecret:  os.Getenv("AUTH_ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("AUTH_REFRESH_TOKEN_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		MaxLoginAttempts: getEnvIntOrDefault("AUTH_MAX_LOGIN_ATTEMPTS", 5),
		LockWindow:       getEnvDurationOrDefault("AUTH_LOCK_WINDOW", 15*time.Minute),

		VerificationTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TTL", 24*time.Hour),
		ResetTTL:        getEnvDurationOrDefault("AUTH_RESET_TTL", time.Hour),

		RevokeOnReuse: getEnvBoolOrDefault("AUTH_REVOKE_ON_REUSE", true),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		AppURL:       os.Getenv("APP_URL"),

		CORSOrigins: splitAndTrim(getEnvOrDefault("CORS_ORIGINS", "*")),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
