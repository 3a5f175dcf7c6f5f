package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,      default=8080"`
	Env        string `env:"ENV,       default=development"`
	JWTSecret  string `env:"JWT_SECRET"`
	HashSecret string `env:"IDENTITY_HASH_SECRET"`
	LogLevel   string `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Directory DirectoryConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity_system"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// DirectoryConfig collects every tunable of the identity lifecycle core.
// Values are read once at startup and are immutable afterwards; out-of-range
// values are clamped rather than rejected.
type DirectoryConfig struct {
	FallbackPath       string `env:"FALLBACK_STORE_PATH,  default=data/directory.json"`
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE, default=+52"`

	// Roles is the closed role catalog; invite and role changes validate
	// against it.
	Roles []string `env:"ROLES, default=Admin,HR,Manager,Employee"`

	// BootstrapAccounts are "email:role" pairs materialized at startup when
	// absent. LegacySeedEmails are pruned from both backends on every
	// preparation pass.
	BootstrapAccounts []string `env:"BOOTSTRAP_ACCOUNTS"`
	LegacySeedEmails  []string `env:"LEGACY_SEED_EMAILS"`

	InviteTTL         time.Duration `env:"INVITE_TTL,          default=168h"`
	OTPTTL            time.Duration `env:"OTP_TTL,             default=300s"`
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN, default=60s"`
	OTPMaxAttempts    int           `env:"OTP_MAX_ATTEMPTS,    default=5"`
	MFAChallengeTTL   time.Duration `env:"MFA_CHALLENGE_TTL,   default=600s"`
	RetentionYears    int           `env:"RETENTION_YEARS,     default=5"`

	OTPRateWindow time.Duration `env:"OTP_RATE_WINDOW, default=1h"`
	OTPRateMax    int           `env:"OTP_RATE_MAX,    default=10"`
}

// BootstrapAccount is one parsed BOOTSTRAP_ACCOUNTS entry.
type BootstrapAccount struct {
	Email string
	Role  string
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	cfg.Directory.clamp()
	return &cfg
}

func (d *DirectoryConfig) clamp() {
	d.OTPTTL = clampDuration(d.OTPTTL, 60*time.Second, 900*time.Second)
	d.OTPResendCooldown = clampDuration(d.OTPResendCooldown, 15*time.Second, 300*time.Second)
	d.MFAChallengeTTL = clampDuration(d.MFAChallengeTTL, 120*time.Second, 1800*time.Second)
	d.OTPMaxAttempts = clampInt(d.OTPMaxAttempts, 1, 10)
	d.RetentionYears = clampInt(d.RetentionYears, 1, 25)
}

// ParseBootstrapAccounts splits the "email:role" entries, skipping malformed
// ones.
func (d *DirectoryConfig) ParseBootstrapAccounts() []BootstrapAccount {
	out := make([]BootstrapAccount, 0, len(d.BootstrapAccounts))
	for _, entry := range d.BootstrapAccounts {
		email, role, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || email == "" || role == "" {
			continue
		}
		out = append(out, BootstrapAccount{Email: email, Role: role})
	}
	return out
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
