package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	Render    RenderConfig    `mapstructure:"render"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// CacheConfig selects and configures the geodata cache backend.
type CacheConfig struct {
	Backend  string         `mapstructure:"backend"` // file | valkey | postgres
	Dir      string         `mapstructure:"dir"`
	Valkey   ValkeyConfig   `mapstructure:"valkey"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// OverpassConfig tunes the geodata fetch layer. Delays are the minimum
// spacing between remote requests, in milliseconds.
type OverpassConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	NetworkDelayMS int    `mapstructure:"network_delay_ms"`
	FeatureDelayMS int    `mapstructure:"feature_delay_ms"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

type NominatimConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelayMS        int    `mapstructure:"delay_ms"`
}

type RenderConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	FontsDir     string `mapstructure:"fonts_dir"`
	ThemesDir    string `mapstructure:"themes_dir"`
	DefaultTheme string `mapstructure:"default_theme"`
	PNGDPI       int    `mapstructure:"png_dpi"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.valkey.addr", "localhost:6379")
	v.SetDefault("cache.postgres.host", "localhost")
	v.SetDefault("cache.postgres.port", 5432)
	v.SetDefault("cache.postgres.user", "mapframe")
	v.SetDefault("cache.postgres.password", "")
	v.SetDefault("cache.postgres.dbname", "mapframe")
	v.SetDefault("cache.postgres.sslmode", "disable")
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_seconds", 10)
	v.SetDefault("overpass.network_delay_ms", 500)
	v.SetDefault("overpass.feature_delay_ms", 300)
	v.SetDefault("overpass.max_retries", 3)
	v.SetDefault("nominatim.endpoint", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "mapframe/1.0 (+https://github.com/samirrijal/mapframe)")
	v.SetDefault("nominatim.timeout_seconds", 10)
	v.SetDefault("nominatim.delay_ms", 1000)
	v.SetDefault("render.output_dir", "posters")
	v.SetDefault("render.fonts_dir", "fonts")
	v.SetDefault("render.themes_dir", "")
	v.SetDefault("render.default_theme", "terracotta")
	v.SetDefault("render.png_dpi", 300)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPFRAME_CACHE_BACKEND → cache.backend
	v.SetEnvPrefix("MAPFRAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			errs = append(errs, "cache.dir is required for the file backend")
		}
	case "valkey":
		if c.Cache.Valkey.Addr == "" {
			errs = append(errs, "cache.valkey.addr is required for the valkey backend")
		}
	case "postgres":
		if c.Cache.Postgres.Host == "" {
			errs = append(errs, "cache.postgres.host is required for the postgres backend")
		}
		if c.Cache.Postgres.User == "" {
			errs = append(errs, "cache.postgres.user is required for the postgres backend")
		}
		if c.Cache.Postgres.DBName == "" {
			errs = append(errs, "cache.postgres.dbname is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be file, valkey or postgres, got %q", c.Cache.Backend))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Overpass.Endpoint == "" {
		errs = append(errs, "overpass.endpoint is required")
	}
	if c.Overpass.TimeoutSeconds <= 0 {
		errs = append(errs, "overpass.timeout_seconds must be positive")
	}
	if c.Nominatim.Endpoint == "" {
		errs = append(errs, "nominatim.endpoint is required")
	}
	if c.Nominatim.UserAgent == "" {
		errs = append(errs, "nominatim.user_agent is required")
	}
	if c.Render.OutputDir == "" {
		errs = append(errs, "render.output_dir is required")
	}
	if c.Render.DefaultTheme == "" {
		errs = append(errs, "render.default_theme is required")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
