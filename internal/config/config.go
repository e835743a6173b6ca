package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"medminder-go/pkg/logger"
)

const (
	ProviderSupabase = "supabase"
	ProviderPostgres = "postgres"
)

type Config struct {
	HTTPHost       string
	HTTPPort       string
	Env            string
	CORSOrigins    []string
	SnapshotPath   string
	RemoteProvider string
	Supabase       SupabaseConfig
	DB             DBConfig
	LoginRate      LoginRateConfig
}

type SupabaseConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LoginRateConfig bounds sign-in attempts per client address.
type LoginRateConfig struct {
	PerMinute int
	Burst     int
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	env := &envReader{}
	cfg := Config{
		HTTPHost:       env.str("HTTP_HOST", ""),
		HTTPPort:       env.str("HTTP_PORT", "8080"),
		Env:            env.str("ENV", "development"),
		CORSOrigins:    env.list("CORS_ORIGINS", []string{"http://localhost:5173"}),
		SnapshotPath:   env.str("SNAPSHOT_PATH", "medminder.db"),
		RemoteProvider: strings.ToLower(env.str("REMOTE_PROVIDER", ProviderSupabase)),
		Supabase: SupabaseConfig{
			URL:     env.str("SUPABASE_URL", ""),
			AnonKey: env.str("SUPABASE_ANON_KEY", env.str("VITE_SUPABASE_ANON_KEY", "")),
			Timeout: env.duration("SUPABASE_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			DSN:             env.str("DB_DSN", ""),
			Host:            env.str("DB_HOST", "localhost"),
			Port:            env.str("DB_PORT", "5432"),
			User:            env.str("DB_USER", "postgres"),
			Password:        env.str("DB_PASSWORD", "postgres"),
			Name:            env.str("DB_NAME", "medminder"),
			SSLMode:         env.str("DB_SSLMODE", "disable"),
			TimeZone:        env.str("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    env.positiveInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.positiveInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		LoginRate: LoginRateConfig{
			PerMinute: env.positiveInt("LOGIN_RATE_PER_MINUTE", 10),
			Burst:     env.positiveInt("LOGIN_RATE_BURST", 5),
		},
	}

	switch cfg.RemoteProvider {
	case ProviderSupabase, ProviderPostgres:
	default:
		env.fail("REMOTE_PROVIDER", fmt.Errorf("unknown provider %q", cfg.RemoteProvider))
	}

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envReader collects malformed values so Load reports all of them at once.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}

func (r *envReader) str(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func (r *envReader) positiveInt(key string, fallback int) int {
	value := r.str(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, err)
		return fallback
	}
	if parsed <= 0 {
		r.fail(key, fmt.Errorf("must be positive, got %d", parsed))
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := r.str(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, err)
		return fallback
	}
	return parsed
}

func (r *envReader) list(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// GetDSN prefers DB_DSN and otherwise assembles a keyword/value DSN.
func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	parts := []string{
		"host=" + c.Host,
		"port=" + c.Port,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Name,
		"sslmode=" + c.SSLMode,
		"TimeZone=" + c.TimeZone,
	}
	return strings.Join(parts, " ")
}
