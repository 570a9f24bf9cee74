package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Pipeline  PipelineConfig
	Rating    RatingConfig
	Patterns  PatternsConfig
	Results   ResultsConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
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

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	AnalysisTimeout  time.Duration
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// PipelineConfig holds analysis defaults
type PipelineConfig struct {
	ChunkSize          int
	ShippingPerUnit    float64
	MiscPerUnit        float64
	DefaultBudget      float64
	MaxFileSize        int64
	PricingStrategy    string
	AllocationStrategy string
}

// Parent rating aggregation modes
const (
	ParentModeSum = "sum"
	ParentModeMax = "max"
)

// RatingConfig controls rating aggregation
type RatingConfig struct {
	// ParentMode is "sum" (add every variant's parent-level count) or
	// "max" (take the largest one)
	ParentMode string
}

// PatternsConfig holds per-field alias overrides keyed by field key
// (e.g. "imported_code"). An entry replaces the built-in aliases of that field.
type PatternsConfig struct {
	Main  map[string][]string
	Cost  map[string][]string
	Stock map[string][]string
}

// Result store backends
const (
	ResultsBackendMemory = "memory"
	ResultsBackendRedis  = "redis"
	ResultsBackendSQL    = "sql"
	ResultsBackendNone   = "none"
)

// Database drivers for the sql result backend
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ResultsConfig controls how finished analyses are kept for later retrieval
type ResultsConfig struct {
	Backend    string // memory, redis, sql, none
	TTL        time.Duration
	MaxEntries int
	// AllowFallback lets the redis backend degrade to memory when Redis is unreachable
	AllowFallback bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds settings for the sql result backend
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file, or ":memory:"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
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

// StorageConfig holds S3-compatible report archive settings
type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	KeyPrefix         string
}

// TelemetryConfig holds OpenTelemetry tracing settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string // OTLP gRPC endpoint
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool // include bind variables in SQL spans
	DBSlowQueryThresh time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RECON_ prefix (e.g., RECON_PIPELINE_CHUNK_SIZE)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return build(v)
}

// LoadFile loads configuration from an explicit file path. Environment
// variables still take precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
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
			AnalysisTimeout:  v.GetDuration("http.analysis_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:          v.GetInt("pipeline.chunk_size"),
			ShippingPerUnit:    v.GetFloat64("pipeline.shipping_per_unit"),
			MiscPerUnit:        v.GetFloat64("pipeline.misc_per_unit"),
			DefaultBudget:      v.GetFloat64("pipeline.default_budget"),
			MaxFileSize:        v.GetInt64("pipeline.max_file_size"),
			PricingStrategy:    v.GetString("pipeline.pricing_strategy"),
			AllocationStrategy: v.GetString("pipeline.allocation_strategy"),
		},
		Rating: RatingConfig{
			ParentMode: strings.ToLower(v.GetString("rating.parent_mode")),
		},
		Patterns: PatternsConfig{
			Main:  v.GetStringMapStringSlice("patterns.main"),
			Cost:  v.GetStringMapStringSlice("patterns.cost"),
			Stock: v.GetStringMapStringSlice("patterns.stock"),
		},
		Results: ResultsConfig{
			Backend:       strings.ToLower(v.GetString("results.backend")),
			TTL:           v.GetDuration("results.ttl"),
			MaxEntries:    v.GetInt("results.max_entries"),
			AllowFallback: !v.IsSet("results.allow_fallback") || v.GetBool("results.allow_fallback"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			KeyPrefix:         v.GetString("storage.key_prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     1.0,
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}
	if v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = v.GetFloat64("telemetry.sampling_ratio")
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "catalog-recon"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 100 << 20 // 100MB, several catalog exports per request
	}
	if cfg.HTTP.AnalysisTimeout == 0 {
		cfg.HTTP.AnalysisTimeout = 4 * time.Minute
	}
	// CORS origins have no wildcard fallback; cross-origin use must be configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 2000
	}
	if cfg.Pipeline.MaxFileSize == 0 {
		cfg.Pipeline.MaxFileSize = 50 << 20 // 50MB
	}
	if cfg.Rating.ParentMode == "" {
		cfg.Rating.ParentMode = ParentModeSum
	}
	if cfg.Results.Backend == "" {
		cfg.Results.Backend = ResultsBackendMemory
	}
	if cfg.Results.TTL == 0 {
		cfg.Results.TTL = time.Hour
	}
	if cfg.Results.MaxEntries == 0 {
		cfg.Results.MaxEntries = 100
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "recon.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 24 * time.Hour
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "reports"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Pipeline.ChunkSize < 0 {
		return fmt.Errorf("pipeline.chunk_size must be positive")
	}
	if c.Pipeline.ShippingPerUnit < 0 {
		return fmt.Errorf("pipeline.shipping_per_unit cannot be negative")
	}
	if c.Pipeline.MiscPerUnit < 0 {
		return fmt.Errorf("pipeline.misc_per_unit cannot be negative")
	}
	if c.Pipeline.DefaultBudget < 0 {
		return fmt.Errorf("pipeline.default_budget cannot be negative")
	}
	if c.Pipeline.MaxFileSize < 0 {
		return fmt.Errorf("pipeline.max_file_size cannot be negative")
	}
	switch c.Rating.ParentMode {
	case ParentModeSum, ParentModeMax:
	default:
		return fmt.Errorf("rating.parent_mode must be %q or %q, got %q", ParentModeSum, ParentModeMax, c.Rating.ParentMode)
	}

	switch c.Results.Backend {
	case ResultsBackendMemory, ResultsBackendRedis, ResultsBackendSQL, ResultsBackendNone:
	default:
		return fmt.Errorf("results.backend must be one of memory, redis, sql, none, got %q", c.Results.Backend)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Results.TTL < 0 {
		return fmt.Errorf("results.ttl cannot be negative")
	}
	if c.Results.MaxEntries < 0 {
		return fmt.Errorf("results.max_entries cannot be negative")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	for name, overrides := range map[string]map[string][]string{
		"main":  c.Patterns.Main,
		"cost":  c.Patterns.Cost,
		"stock": c.Patterns.Stock,
	} {
		if _, err := fieldOverrides(overrides); err != nil {
			return fmt.Errorf("patterns.%s: %w", name, err)
		}
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	return nil
}

// MainPatterns returns the main-table pattern table with overrides applied
func (p PatternsConfig) MainPatterns() catalog.PatternTable {
	return applyOverrides(catalog.DefaultMainPatterns(), p.Main)
}

// CostPatterns returns the cost-table pattern table with overrides applied
func (p PatternsConfig) CostPatterns() catalog.PatternTable {
	return applyOverrides(catalog.DefaultCostPatterns(), p.Cost)
}

// StockPatterns returns the stock-table pattern table with overrides applied
func (p PatternsConfig) StockPatterns() catalog.PatternTable {
	return applyOverrides(catalog.DefaultStockPatterns(), p.Stock)
}

func applyOverrides(table catalog.PatternTable, raw map[string][]string) catalog.PatternTable {
	overrides, err := fieldOverrides(raw)
	if err != nil || len(overrides) == 0 {
		// validate rejects bad keys before a Config is handed out
		return table
	}
	return table.WithOverrides(overrides)
}

func fieldOverrides(raw map[string][]string) (map[catalog.StandardField][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[catalog.StandardField][]string, len(raw))
	for _, k := range keys {
		f, ok := catalog.ParseField(k)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", k)
		}
		aliases := raw[k]
		if len(aliases) == 0 {
			return nil, fmt.Errorf("field %q has no aliases", k)
		}
		out[f] = aliases
	}
	return out, nil
}
