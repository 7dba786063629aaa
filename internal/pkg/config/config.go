package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Discovery engines.
const (
	EngineInline   = "inline"
	EngineTemporal = "temporal"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Session   SessionConfig   `mapstructure:"session"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	RateLimit      int    `mapstructure:"rate_limit"`
	CORSOrigins    string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Host          string  `mapstructure:"host"`
	Port          int     `mapstructure:"port"`
	User          string  `mapstructure:"user"`
	Password      string  `mapstructure:"password"`
	DBName        string  `mapstructure:"dbname"`
	SSLMode       string  `mapstructure:"sslmode"`
	MaxConns      int32   `mapstructure:"max_conns"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	Retention time.Duration `mapstructure:"retention"`
}

type ValkeyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	GeocodeTTL int    `mapstructure:"geocode_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SpeechConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	LanguageCode    string        `mapstructure:"language_code"`
	Voice           string        `mapstructure:"voice"`
	SpeakingRate    float64       `mapstructure:"speaking_rate"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type TemporalConfig struct {
	HostPort        string        `mapstructure:"host_port"`
	Namespace       string        `mapstructure:"namespace"`
	TaskQueue       string        `mapstructure:"task_queue"`
	WorkflowTimeout time.Duration `mapstructure:"workflow_timeout"`
}

type DiscoveryConfig struct {
	Engine             string `mapstructure:"engine"`
	GeocodeConcurrency int    `mapstructure:"geocode_concurrency"`
}

type SessionConfig struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	cfg, err := read(service)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only what database tooling needs, so it works without
// model or maps credentials.
func LoadDatabase(service string) (*DatabaseConfig, error) {
	cfg, err := read(service)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Database.validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	return &cfg.Database, nil
}

func read(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.request_timeout", 60)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.cors_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sundaydrive")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sundaydrive")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_similarity", 0.6)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.retention", "10m")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.geocode_ttl", 7*24*3600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", "30s")
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.language_code", "en-US")
	v.SetDefault("speech.speaking_rate", 1.0)
	v.SetDefault("speech.timeout", "20s")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "discovery-queue")
	v.SetDefault("temporal.workflow_timeout", "2m")
	v.SetDefault("discovery.engine", EngineInline)
	v.SetDefault("discovery.geocode_concurrency", 4)
	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.janitor_interval", "5m")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SUNDAYDRIVE_GEMINI_API_KEY → gemini.api_key
	v.SetEnvPrefix("SUNDAYDRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows; secrets have no default.
	_ = v.BindEnv("gemini.api_key")
	_ = v.BindEnv("maps.api_key")
	_ = v.BindEnv("speech.credentials_file")
	_ = v.BindEnv("speech.voice")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, "gemini.api_key is required")
	}
	if c.Gemini.Model == "" {
		errs = append(errs, "gemini.model is required")
	}
	if c.Database.Enabled {
		errs = append(errs, c.Database.validate()...)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	switch c.Discovery.Engine {
	case EngineInline:
	case EngineTemporal:
		if c.Temporal.HostPort == "" {
			errs = append(errs, "temporal.host_port is required for the temporal discovery engine")
		}
	default:
		errs = append(errs, fmt.Sprintf("discovery.engine must be %q or %q, got %q", EngineInline, EngineTemporal, c.Discovery.Engine))
	}
	if c.Discovery.GeocodeConcurrency <= 0 {
		errs = append(errs, "discovery.geocode_concurrency must be positive")
	}
	if c.Session.IdleTTL < 0 {
		errs = append(errs, "session.idle_ttl must not be negative")
	}

	if len(errs) > 0 {
		return validationError(errs)
	}
	return nil
}

func (d DatabaseConfig) validate() []string {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user is required")
	}
	if d.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if d.MinSimilarity <= 0 || d.MinSimilarity > 1 {
		errs = append(errs, "database.min_similarity must be in (0, 1]")
	}
	return errs
}

func validationError(errs []string) error {
	return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}
