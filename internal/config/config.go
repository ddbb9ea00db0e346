package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Provider ProviderConfig `yaml:"provider"`
	Search   SearchConfig   `yaml:"search"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Broker   BrokerConfig   `yaml:"broker"`
}

type ServerConfig struct {
	GRPCPort    int `yaml:"grpc_port"`
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ProviderConfig configures the Finnhub market-data client
type ProviderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	Exchange   string `yaml:"exchange"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
}

// SearchConfig configures the instrument filter applied to search matches
type SearchConfig struct {
	Limit             int      `yaml:"limit"`
	ExcludeDelimiters string   `yaml:"exclude_delimiters"`
	InstrumentTypes   []string `yaml:"instrument_types"`
}

type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory or redis
	MaxEntries int    `yaml:"max_entries"`
	RedisURL   string `yaml:"redis_url"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"` // postgres or sqlite
	DSN        string `yaml:"dsn"`
	SqlitePath string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// BrokerConfig holds the brokerage sandbox OAuth credentials
// The OAuth exchange itself lives in the web client; the values are carried for it
type BrokerConfig struct {
	SandboxBaseURL string `yaml:"sandbox_base_url"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	CallbackURL    string `yaml:"callback_url"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Server: ServerConfig{GRPCPort: 8080, HTTPPort: 8081, MetricsPort: 8082},
		Log:    LogConfig{Level: "info"},
		Provider: ProviderConfig{
			BaseURL:    "https://finnhub.io/api/v1",
			Exchange:   "US",
			TimeoutMs:  5000,
			MaxRetries: 2,
		},
		Search: SearchConfig{
			Limit:             5,
			ExcludeDelimiters: ".",
			InstrumentTypes:   []string{"Common Stock"},
		},
		Cache: CacheConfig{Backend: "memory"},
		Store: StoreConfig{
			Driver:     "sqlite",
			SqlitePath: "data/stocksim.db",
		},
		Auth: AuthConfig{Issuer: ""},
		Broker: BrokerConfig{
			SandboxBaseURL: "https://apisb.etrade.com",
			CallbackURL:    "http://localhost:5173/auth/etrade/callback",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides
// A missing file is not an error
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the fields the server cannot run without
func (c *Config) Validate() error {
	if err := c.ValidateClient(); err != nil {
		return err
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("missing required config: AUTH_JWT_SECRET or auth.jwt_secret")
	}

	return nil
}

// ValidateClient checks the provider, search, store and cache settings
// It leaves out the auth settings that only the gRPC server needs
func (c *Config) ValidateClient() error {
	if c.Provider.APIKey == "" {
		return errors.New("missing required config: FINNHUB_API_KEY or provider.api_key")
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("missing required config: DB_CONN_STR or store.dsn for postgres driver")
		}
	case "sqlite":
		if c.Store.SqlitePath == "" {
			return errors.New("missing required config: store.sqlite_path for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("missing required config: REDIS_URL or cache.redis_url for redis cache")
		}
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}

	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}

	return nil
}

// ProviderTimeout returns the provider HTTP timeout as a duration
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutMs) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_SECRET"); v != "" {
		cfg.Provider.APISecret = v
	}
	if v := os.Getenv("ETRADE_API_KEY"); v != "" {
		cfg.Broker.APIKey = v
	}
	if v := os.Getenv("ETRADE_API_SECRET"); v != "" {
		cfg.Broker.APISecret = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	ports := []struct {
		env string
		dst *int
	}{
		{"GRPC_PORT", &cfg.Server.GRPCPort},
		{"HTTP_PORT", &cfg.Server.HTTPPort},
		{"METRICS_PORT", &cfg.Server.MetricsPort},
	}
	for _, p := range ports {
		v := os.Getenv(p.env)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", p.env, v)
		}
		*p.dst = port
	}

	return nil
}
