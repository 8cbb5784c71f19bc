package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Billing     BillingConfig
	Documents   DocumentsConfig
	Telemetry   TelemetryConfig
	Idempotency IdempotencyConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Path            string // sqlite file path, ":memory:" for an in-memory database
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	RequestTimeout   time.Duration
	// Document rendering is rate limited per client
	DocumentRateBurst  int
	DocumentRateWindow time.Duration
}

// BillingConfig holds the tunables of the invoicing engine
type BillingConfig struct {
	DefaultHourlyRate     float64 // applied to new customers without an explicit rate
	DefaultVATRate        float64 // percent, applied to new tasks without an explicit rate
	TimeResolutionMinutes int     // time entry rounding resolution
	InvoiceNumberRetries  int     // attempts when two invoices race for the same number
	DueDays               int
	WayDueDays            int
}

// HourlyRate returns the default hourly rate as a decimal
func (b BillingConfig) HourlyRate() decimal.Decimal {
	return decimal.NewFromFloat(b.DefaultHourlyRate)
}

// VATRate returns the default VAT rate as a decimal
func (b BillingConfig) VATRate() decimal.Decimal {
	return decimal.NewFromFloat(b.DefaultVATRate)
}

// Resolution returns the rounding resolution as a duration
func (b BillingConfig) Resolution() time.Duration {
	return time.Duration(b.TimeResolutionMinutes) * time.Minute
}

// DocumentsConfig holds invoice document rendering and storage settings
type DocumentsConfig struct {
	Backend       string // filesystem or s3
	BasePath      string // filesystem root for rendered documents
	ChromePath    string // optional path to a Chrome/Chromium binary
	ChromeURL     string // remote Chrome DevTools endpoint; empty launches a local browser
	NoSandbox     bool   // required when Chrome runs as root in a container
	RenderTimeout time.Duration
	Locale        string // BCP 47 tag used for number formatting on documents
	S3            S3Config
}

// IdempotencyConfig controls replay protection for invoice creation
type IdempotencyConfig struct {
	Enabled bool
	Backend string // memory or redis
	TTL     time.Duration
	Redis   RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Prefix       string
	UseSSL       bool
	UsePathStyle bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
	// Metrics options
	MetricsEnabled  bool
	MetricsInterval time.Duration
	// Export log entries through the OTLP log bridge
	LogsEnabled bool
	// Continuous profiling (pyroscope)
	ProfilingEnabled   bool
	ProfilingServer    string
	ProfileTypes       []string
	ProfilingBasicUser string
	ProfilingBasicPass string
}

// Load loads configuration from a .env file, config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STOPTIME_ prefix (e.g., STOPTIME_DATABASE_PASSWORD)
// 2. .env file in the working directory (never overrides variables already set)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func newViper() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stoptime")

	v.SetDefault("billing.default_hourly_rate", 20.0)
	v.SetDefault("billing.default_vat_rate", 0.0)
	v.SetDefault("billing.time_resolution_minutes", 1)
	v.SetDefault("billing.invoice_number_retries", 3)
	v.SetDefault("billing.due_days", 30)
	v.SetDefault("billing.way_due_days", 60)
	v.SetDefault("idempotency.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOPTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),

			DocumentRateBurst:  v.GetInt("http.document_rate_burst"),
			DocumentRateWindow: v.GetDuration("http.document_rate_window"),
		},
		Billing: BillingConfig{
			DefaultHourlyRate:     v.GetFloat64("billing.default_hourly_rate"),
			DefaultVATRate:        v.GetFloat64("billing.default_vat_rate"),
			TimeResolutionMinutes: v.GetInt("billing.time_resolution_minutes"),
			InvoiceNumberRetries:  v.GetInt("billing.invoice_number_retries"),
			DueDays:               v.GetInt("billing.due_days"),
			WayDueDays:            v.GetInt("billing.way_due_days"),
		},
		Documents: DocumentsConfig{
			Backend:       v.GetString("documents.backend"),
			BasePath:      v.GetString("documents.base_path"),
			ChromePath:    v.GetString("documents.chrome_path"),
			ChromeURL:     v.GetString("documents.chrome_url"),
			NoSandbox:     v.GetBool("documents.no_sandbox"),
			RenderTimeout: v.GetDuration("documents.render_timeout"),
			Locale:        v.GetString("documents.locale"),
			S3: S3Config{
				Endpoint:     v.GetString("documents.s3.endpoint"),
				Region:       v.GetString("documents.s3.region"),
				Bucket:       v.GetString("documents.s3.bucket"),
				AccessKey:    v.GetString("documents.s3.access_key"),
				SecretKey:    v.GetString("documents.s3.secret_key"),
				Prefix:       v.GetString("documents.s3.prefix"),
				UseSSL:       v.GetBool("documents.s3.use_ssl"),
				UsePathStyle: v.GetBool("documents.s3.use_path_style"),
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:            v.GetBool("telemetry.enabled"),
			CollectorEndpoint:  v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:      v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:        v.GetString("telemetry.service_name"),
			Insecure:           v.GetBool("telemetry.insecure"),
			DBTraceEnabled:     v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh:  v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsEnabled:     v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:    v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:        v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:   v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:    v.GetString("telemetry.profiling_server"),
			ProfileTypes:       v.GetStringSlice("telemetry.profile_types"),
			ProfilingBasicUser: v.GetString("telemetry.profiling_basic_auth_user"),
			ProfilingBasicPass: v.GetString("telemetry.profiling_basic_auth_password"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			Backend: v.GetString("idempotency.backend"),
			TTL:     v.GetDuration("idempotency.ttl"),
			Redis: RedisConfig{
				Host:     v.GetString("idempotency.redis.host"),
				Port:     v.GetInt("idempotency.redis.port"),
				Password: v.GetString("idempotency.redis.password"),
				DB:       v.GetInt("idempotency.redis.db"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stoptime"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "stoptime.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "stoptime"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 60 * time.Second
	}
	if cfg.HTTP.DocumentRateBurst == 0 {
		cfg.HTTP.DocumentRateBurst = 10
	}
	if cfg.HTTP.DocumentRateWindow == 0 {
		cfg.HTTP.DocumentRateWindow = time.Minute
	}
	// An empty origin list means no cross-origin requests are allowed until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Documents.Backend == "" {
		cfg.Documents.Backend = "filesystem"
	}
	if cfg.Documents.BasePath == "" {
		cfg.Documents.BasePath = "./documents"
	}
	if cfg.Documents.RenderTimeout == 0 {
		cfg.Documents.RenderTimeout = 30 * time.Second
	}
	if cfg.Documents.Locale == "" {
		cfg.Documents.Locale = "en"
	}
	if cfg.Documents.S3.Region == "" {
		cfg.Documents.S3.Region = "us-east-1"
	}
	if cfg.Documents.S3.Prefix == "" {
		cfg.Documents.S3.Prefix = "invoices/"
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "stoptime"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.ProfilingServer == "" {
		cfg.Telemetry.ProfilingServer = "http://localhost:4040"
	}

	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = "memory"
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Idempotency.Redis.Host == "" {
		cfg.Idempotency.Redis.Host = "localhost"
	}
	if cfg.Idempotency.Redis.Port == 0 {
		cfg.Idempotency.Redis.Port = 6379
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Billing.DefaultHourlyRate < 0 {
		return fmt.Errorf("billing.default_hourly_rate cannot be negative")
	}
	if c.Billing.DefaultVATRate < 0 || c.Billing.DefaultVATRate > 100 {
		return fmt.Errorf("billing.default_vat_rate must be between 0 and 100, got %f", c.Billing.DefaultVATRate)
	}
	if c.Billing.TimeResolutionMinutes <= 0 || c.Billing.TimeResolutionMinutes > 60 {
		return fmt.Errorf("billing.time_resolution_minutes must be between 1 and 60, got %d", c.Billing.TimeResolutionMinutes)
	}
	if c.Billing.InvoiceNumberRetries <= 0 {
		return fmt.Errorf("billing.invoice_number_retries must be positive")
	}
	if c.Billing.DueDays <= 0 || c.Billing.WayDueDays <= c.Billing.DueDays {
		return fmt.Errorf("billing.way_due_days (%d) must exceed billing.due_days (%d)",
			c.Billing.WayDueDays, c.Billing.DueDays)
	}

	switch c.Documents.Backend {
	case "filesystem":
	case "s3":
		if c.Documents.S3.Bucket == "" {
			return fmt.Errorf("documents.s3.bucket is required when documents.backend is 's3'")
		}
	default:
		return fmt.Errorf("documents.backend must be 'filesystem' or 's3', got %q", c.Documents.Backend)
	}

	switch c.Idempotency.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("idempotency.backend must be 'memory' or 'redis', got %q", c.Idempotency.Backend)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
