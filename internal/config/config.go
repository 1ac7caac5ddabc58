package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-jwt-secret"

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

type EventsConfig struct {
	RedisAddr    string
	RedisChannel string
	BufferSize   int
}

type ReconcileConfig struct {
	Cron             string
	ReportDir        string
	FuzzyWindow      time.Duration
	AmountOnlyWindow time.Duration
}

// InternalConfig guards /internal endpoints used by external schedulers.
type InternalConfig struct {
	Token      string
	AllowedIPs []string
}

type ReservationConfig struct {
	EndTolerance time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Events      EventsConfig
	Reconcile   ReconcileConfig
	Reservation ReservationConfig
	Internal    InternalConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("REDIS_CHANNEL", "contract-events")
	v.SetDefault("EVENTS_BUFFER_SIZE", 256)
	v.SetDefault("RECONCILE_REPORT_DIR", ".")
	v.SetDefault("RECONCILE_FUZZY_WINDOW", "1h")
	v.SetDefault("RECONCILE_AMOUNT_ONLY_WINDOW", "24h")
	v.SetDefault("RESERVATION_END_TOLERANCE", "60s")

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),
		},
		Events: EventsConfig{
			RedisAddr:    strings.TrimSpace(v.GetString("REDIS_ADDR")),
			RedisChannel: v.GetString("REDIS_CHANNEL"),
			BufferSize:   v.GetInt("EVENTS_BUFFER_SIZE"),
		},
		Reconcile: ReconcileConfig{
			Cron:      strings.TrimSpace(v.GetString("RECONCILE_CRON")),
			ReportDir: v.GetString("RECONCILE_REPORT_DIR"),
		},
		Internal: InternalConfig{
			Token:      strings.TrimSpace(v.GetString("INTERNAL_API_TOKEN")),
			AllowedIPs: parseList(v.GetString("INTERNAL_ALLOWED_IPS")),
		},
	}

	var err error
	if cfg.Auth.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.Reconcile.FuzzyWindow, err = parseDuration(v, "RECONCILE_FUZZY_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.Reconcile.AmountOnlyWindow, err = parseDuration(v, "RECONCILE_AMOUNT_ONLY_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.Reservation.EndTolerance, err = parseDuration(v, "RESERVATION_END_TOLERANCE"); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("HTTP_PORT must be > 0")
	}
	if cfg.Events.BufferSize <= 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be > 0")
	}
	if cfg.Reservation.EndTolerance <= 0 {
		return fmt.Errorf("RESERVATION_END_TOLERANCE must be > 0")
	}
	if cfg.Reconcile.FuzzyWindow <= 0 || cfg.Reconcile.AmountOnlyWindow <= 0 {
		return fmt.Errorf("reconciliation windows must be > 0")
	}
	if IsProdLike(cfg.Environment) && (cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
