package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "storyforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	return load(yamlPath, CLIFlags{})
}

// LoadWithCLI loads the configuration with CLI flags applied last. It returns
// the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}
	cfg, err := load(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func load(yamlPath string, flags CLIFlags) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)
	clamp(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "STORYFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "STORYFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "STORYFORGE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Store.Driver, "STORYFORGE_STORE_DRIVER")
	setString(&cfg.SQLite.Path, "STORYFORGE_SQLITE_PATH")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "STORYFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "STORYFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "STORYFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "STORYFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "STORYFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")

	setString(&cfg.Generator.Model, "STORYFORGE_GENERATOR_MODEL")
	setDuration(&cfg.Generator.Timeout, "STORYFORGE_GENERATOR_TIMEOUT")
	setInt(&cfg.Generator.MaxTokens, "STORYFORGE_GENERATOR_MAX_TOKENS")
	setFloat64(&cfg.Generator.Temperature, "STORYFORGE_GENERATOR_TEMPERATURE")
	setInt(&cfg.Generator.MalformedRetries, "STORYFORGE_GENERATOR_MALFORMED_RETRIES")
	setInt(&cfg.Generator.MaxConcurrent, "STORYFORGE_GENERATOR_MAX_CONCURRENT")

	setString(&cfg.Logging.Level, "STORYFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "STORYFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "STORYFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "STORYFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "STORYFORGE_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "STORYFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "STORYFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "STORYFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "STORYFORGE_RATE_MAX_IDLE_TIME")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "STORYFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "STORYFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "STORYFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.LayoutTTL, "STORYFORGE_CACHE_LAYOUT_TTL")

	// Telemetry
	setString(&cfg.OTEL.Endpoint, "STORYFORGE_OTEL_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "STORYFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "STORYFORGE_OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTEL.SampleRate, "STORYFORGE_OTEL_SAMPLE_RATE")

	setBool(&cfg.MCP.Enabled, "STORYFORGE_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "STORYFORGE_MCP_API_KEY")
}

// clamp enforces hard upper and lower bounds that are not worth an error.
func clamp(cfg *Config) {
	if cfg.Generator.MalformedRetries > 1 {
		cfg.Generator.MalformedRetries = 1
	}
	if cfg.Generator.MalformedRetries < 0 {
		cfg.Generator.MalformedRetries = 0
	}
	if cfg.Generator.MaxConcurrent < 1 {
		cfg.Generator.MaxConcurrent = 1
	}
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("store.driver %q is not one of memory, sqlite, postgres", cfg.Store.Driver)
	}
	if cfg.Generator.Timeout <= 0 {
		return errors.New("generator.timeout must be > 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Cache.LayoutTTL <= 0 {
		return errors.New("cache.layout_ttl must be > 0")
	}
	return nil
}

// CLIFlags holds command-line overrides. Nil fields were not set.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	Driver     *string
	DSN        *string
	SQLitePath *string
	NatsURL    *string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", DefaultConfigFile, "path to YAML config file")
	fs.StringP("port", "p", "", "HTTP listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("store", "", "document store driver (memory, sqlite, postgres)")
	fs.String("dsn", "", "PostgreSQL connection string")
	fs.String("sqlite-path", "", "SQLite database file")
	fs.String("nats-url", "", "NATS server URL")
}

// FlagsFrom extracts the flags that were explicitly set on fs.
func FlagsFrom(fs *pflag.FlagSet) CLIFlags {
	get := func(name string) *string {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			return nil
		}
		v := f.Value.String()
		return &v
	}
	return CLIFlags{
		ConfigPath: get("config"),
		Port:       get("port"),
		LogLevel:   get("log-level"),
		Driver:     get("store"),
		DSN:        get("dsn"),
		SQLitePath: get("sqlite-path"),
		NatsURL:    get("nats-url"),
	}
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("storyforge", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}
	return FlagsFrom(fs), nil
}

// applyCLI overlays explicitly set flags onto cfg.
func applyCLI(cfg *Config, flags CLIFlags) {
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&cfg.Server.Port, flags.Port)
	apply(&cfg.Logging.Level, flags.LogLevel)
	apply(&cfg.Store.Driver, flags.Driver)
	apply(&cfg.Postgres.DSN, flags.DSN)
	apply(&cfg.SQLite.Path, flags.SQLitePath)
	apply(&cfg.NATS.URL, flags.NatsURL)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
