package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port                      string          `mapstructure:"PORT"`
	StorageDriver             string          `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL               string          `mapstructure:"DATABASE_URL"`
	JWTSecret                 string          `mapstructure:"JWT_SECRET"`
	JWTIssuer                 string          `mapstructure:"JWT_ISSUER"`
	JWTTTLMinutes             int             `mapstructure:"JWT_TTL_MINUTES"`
	CORSAllowedOrigins        string          `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel                  string          `mapstructure:"LOG_LEVEL"`
	LogFormat                 string          `mapstructure:"LOG_FORMAT"`
	RabbitMQURL               string          `mapstructure:"RABBITMQ_URL"`
	EventsExchange            string          `mapstructure:"EVENTS_EXCHANGE"`
	RedisURL                  string          `mapstructure:"REDIS_URL"`
	RateLimitPrefix           string          `mapstructure:"RATE_LIMIT_PREFIX"`
	LoginRateLimitPerMinute   int             `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	WithdrawRateLimitPerMin   int             `mapstructure:"WITHDRAWAL_RATE_LIMIT_PER_MINUTE"`
	EmailAPIURL               string          `mapstructure:"EMAIL_API_URL"`
	EmailAPIKey               string          `mapstructure:"EMAIL_API_KEY"`
	EmailFrom                 string          `mapstructure:"EMAIL_FROM"`
	InternalAPIKey            string          `mapstructure:"INTERNAL_API_KEY"`
	MinDepositRaw             string          `mapstructure:"MIN_DEPOSIT"`
	MinWithdrawalRaw          string          `mapstructure:"MIN_WITHDRAWAL"`
	ReferralCommissionRaw     string          `mapstructure:"REFERRAL_COMMISSION_PERCENT"`
	YieldJobSchedule          string          `mapstructure:"YIELD_JOB_SCHEDULE"`
	AdminEmailsRaw            string          `mapstructure:"ADMIN_EMAILS"`
	JWTTTL                    time.Duration   `mapstructure:"-"`
	CORSOrigins               []string        `mapstructure:"-"`
	AdminEmails               []string        `mapstructure:"-"`
	MinDeposit                decimal.Decimal `mapstructure:"-"`
	MinWithdrawal             decimal.Decimal `mapstructure:"-"`
	ReferralCommissionPercent decimal.Decimal `mapstructure:"-"`
}

var keys = []string{
	"PORT", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES",
	"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "RABBITMQ_URL", "EVENTS_EXCHANGE",
	"REDIS_URL", "RATE_LIMIT_PREFIX", "LOGIN_RATE_LIMIT_PER_MINUTE", "WITHDRAWAL_RATE_LIMIT_PER_MINUTE",
	"EMAIL_API_URL", "EMAIL_API_KEY", "EMAIL_FROM", "INTERNAL_API_KEY", "MIN_DEPOSIT", "MIN_WITHDRAWAL",
	"REFERRAL_COMMISSION_PERCENT", "YIELD_JOB_SCHEDULE", "ADMIN_EMAILS",
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("JWT_ISSUER", "invest-backend")
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("EVENTS_EXCHANGE", "invest.events")
	v.SetDefault("RATE_LIMIT_PREFIX", "invest:rate_limit")
	v.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("WITHDRAWAL_RATE_LIMIT_PER_MINUTE", 5)
	v.SetDefault("MIN_DEPOSIT", "10")
	v.SetDefault("MIN_WITHDRAWAL", "10")
	v.SetDefault("REFERRAL_COMMISSION_PERCENT", "5")
	v.SetDefault("YIELD_JOB_SCHEDULE", "@daily")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.Port = fallback(c.Port, "8080")
	c.StorageDriver = strings.ToLower(fallback(c.StorageDriver, DriverPostgres))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.JWTIssuer = fallback(c.JWTIssuer, "invest-backend")
	c.CORSOrigins = parseCSV(fallback(c.CORSAllowedOrigins, "*"))
	c.AdminEmails = lowerAll(parseCSV(c.AdminEmailsRaw))
	if len(c.AdminEmails) == 1 && c.AdminEmails[0] == "*" {
		c.AdminEmails = nil
	}

	if c.JWTTTLMinutes > 0 {
		c.JWTTTL = time.Duration(c.JWTTTLMinutes) * time.Minute
	} else {
		c.JWTTTL = 60 * time.Minute
	}

	var err error
	if c.MinDeposit, err = parseAmount("MIN_DEPOSIT", c.MinDepositRaw, "10"); err != nil {
		return Config{}, err
	}
	if c.MinWithdrawal, err = parseAmount("MIN_WITHDRAWAL", c.MinWithdrawalRaw, "10"); err != nil {
		return Config{}, err
	}
	if c.ReferralCommissionPercent, err = parseAmount("REFERRAL_COMMISSION_PERCENT", c.ReferralCommissionRaw, "5"); err != nil {
		return Config{}, err
	}
	if c.ReferralCommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, errors.New("REFERRAL_COMMISSION_PERCENT must be at most 100")
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return c, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsAdminEmail reports whether a registering email should receive the admin role.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, candidate := range c.AdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

func parseAmount(key, raw, def string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(fallback(raw, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return value, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
