package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr             = ":8080"
	defaultDatabaseURL          = "qurux.db"
	defaultJWTSecret            = "change-me-jwt-secret"
	defaultLogLevel             = "info"
	defaultLogFormat            = "json"
	defaultAvailabilityCacheTTL = "30s"
	defaultAdmissionRPS         = "2"
	defaultAdmissionBurst       = "5"
	defaultNotifyWorkers        = "2"
	defaultNotifyQueueSize      = "256"
	defaultNotifyTimeout        = "15s"
	defaultSMTPPort             = "587"
	defaultFromEmail            = `"Qurux Booking" <noreply@qurux.com>`
	defaultBookingsLink         = "https://qurux.app/bookings"
	defaultCompletionSweep      = "10m"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string
	JWTSecret   string

	LogLevel  string
	LogFormat string

	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	AvailabilityCacheTTL time.Duration

	AdmissionRPS   float64
	AdmissionBurst int

	Notify NotifyConfig
	SMTP   SMTPConfig

	CompletionSweepInterval time.Duration
	CORSAllowedOrigins      []string
	MetricsEnabled          bool
}

type NotifyConfig struct {
	Workers      int
	QueueSize    int
	Timeout      time.Duration
	BookingsLink string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Enabled reports whether outbound mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.LogFormat = strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat))

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.AvailabilityCacheTTL, err = parseDurationEnv("AVAILABILITY_CACHE_TTL", defaultAvailabilityCacheTTL); err != nil {
		return nil, err
	}
	if cfg.AdmissionRPS, err = parseFloatEnv("ADMISSION_RPS", defaultAdmissionRPS); err != nil {
		return nil, err
	}
	if cfg.AdmissionBurst, err = parseIntEnv("ADMISSION_BURST", defaultAdmissionBurst); err != nil {
		return nil, err
	}

	if cfg.Notify.Workers, err = parseIntEnv("NOTIFY_WORKERS", defaultNotifyWorkers); err != nil {
		return nil, err
	}
	if cfg.Notify.QueueSize, err = parseIntEnv("NOTIFY_QUEUE_SIZE", defaultNotifyQueueSize); err != nil {
		return nil, err
	}
	if cfg.Notify.Timeout, err = parseDurationEnv("NOTIFY_TIMEOUT", defaultNotifyTimeout); err != nil {
		return nil, err
	}
	cfg.Notify.BookingsLink = strings.TrimSpace(getEnv("BOOKINGS_LINK", defaultBookingsLink))

	cfg.SMTP.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if cfg.SMTP.Port, err = parseIntEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	cfg.SMTP.User = strings.TrimSpace(os.Getenv("SMTP_USER"))
	// app passwords are often pasted with spaces
	cfg.SMTP.Pass = strings.Join(strings.Fields(os.Getenv("SMTP_PASS")), "")
	cfg.SMTP.From = strings.TrimSpace(getEnv("FROM_EMAIL", defaultFromEmail))

	if cfg.CompletionSweepInterval, err = parseDurationEnv("COMPLETION_SWEEP_INTERVAL", defaultCompletionSweep); err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}
	cfg.MetricsEnabled = parseBoolEnv("METRICS_ENABLED", "true")

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		return fmt.Errorf("AVAILABILITY_CACHE_TTL must be > 0")
	}
	if cfg.AdmissionRPS <= 0 {
		return fmt.Errorf("ADMISSION_RPS must be > 0")
	}
	if cfg.AdmissionBurst <= 0 {
		return fmt.Errorf("ADMISSION_BURST must be > 0")
	}
	if cfg.Notify.Workers <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS must be > 0")
	}
	if cfg.Notify.QueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be > 0")
	}
	if cfg.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.SMTP.Enabled() && (cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535) {
		return fmt.Errorf("SMTP_PORT must be a valid port")
	}
	if cfg.CompletionSweepInterval < 0 {
		return fmt.Errorf("COMPLETION_SWEEP_INTERVAL must be >= 0")
	}

	if IsProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

// IsProdLike reports whether env names a production deployment.
func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
