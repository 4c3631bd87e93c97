package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverScylla = "scylla"
)

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty serves /metrics on HTTPAddr

	APIPrefix    string `yaml:"api_prefix"` // stored without leading/trailing slash
	InsertRoute  string `yaml:"insert_route"`
	MaxURILength int    `yaml:"max_uri_length"`

	StoreDriver        string        `yaml:"store_driver"`
	SQLitePath         string        `yaml:"sqlite_path"`
	SQLiteCreateSchema bool          `yaml:"sqlite_create_schema"`
	ScyllaHosts        []string      `yaml:"scylla_hosts"`
	ScyllaKeyspace     string        `yaml:"scylla_keyspace"`
	StoreTimeout       time.Duration `yaml:"store_timeout"`

	CaseInsensitiveDomains bool `yaml:"case_insensitive_domains"`

	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		HTTPAddr:           ":8080",
		APIPrefix:          "urlinfo/1",
		InsertRoute:        "/urlinfo/post",
		MaxURILength:       2010,
		StoreDriver:        DriverSQLite,
		SQLitePath:         "malware.db",
		SQLiteCreateSchema: true,
		ScyllaHosts:        []string{"localhost"},
		ScyllaKeyspace:     "urlinfo",
		StoreTimeout:       5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "json",
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load layers defaults, the YAML file named by URLINFO_CONFIG, dotenv files
// (default ".env", never overriding real environment) and the environment.
// Missing dotenv files are ignored.
func Load(dotenvFiles ...string) (Config, error) {
	cfg := Default()

	if path := os.Getenv("URLINFO_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.APIPrefix = strings.Trim(cfg.APIPrefix, "/")
	if cfg.InsertRoute != "" && !strings.HasPrefix(cfg.InsertRoute, "/") {
		cfg.InsertRoute = "/" + cfg.InsertRoute
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIPrefix == "" {
		return fmt.Errorf("API_PREFIX must not be empty")
	}
	if c.InsertRoute == "" {
		return fmt.Errorf("INSERT_ROUTE must not be empty")
	}
	if c.MaxURILength <= 0 {
		return fmt.Errorf("MAX_URI_LENGTH must be positive, got %d", c.MaxURILength)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case DriverScylla:
		if len(c.ScyllaHosts) == 0 {
			return fmt.Errorf("SCYLLA_HOST must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q, want %s or %s", c.StoreDriver, DriverSQLite, DriverScylla)
	}
	return nil
}

func applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("HTTP_ADDR", &c.HTTPAddr)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("API_PREFIX", &c.APIPrefix)
	str("INSERT_ROUTE", &c.InsertRoute)
	str("STORE_DRIVER", &c.StoreDriver)
	str("SQLITE_PATH", &c.SQLitePath)
	str("SCYLLA_KEYSPACE", &c.ScyllaKeyspace)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	// HTTP_PORT (":8080" form) is honoured when HTTP_ADDR is unset.
	if v := os.Getenv("HTTP_PORT"); v != "" && os.Getenv("HTTP_ADDR") == "" {
		c.HTTPAddr = v
	}

	if v := os.Getenv("SCYLLA_HOST"); v != "" {
		var hosts []string
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
		c.ScyllaHosts = hosts
	}

	if v := os.Getenv("MAX_URI_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_URI_LENGTH=%q: %w", v, err)
		}
		c.MaxURILength = n
	}

	for key, dst := range map[string]*time.Duration{
		"STORE_TIMEOUT":    &c.StoreTimeout,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", key, v, err)
			}
			*dst = d
		}
	}

	for key, dst := range map[string]*bool{
		"SQLITE_CREATE_SCHEMA":     &c.SQLiteCreateSchema,
		"CASE_INSENSITIVE_DOMAINS": &c.CaseInsensitiveDomains,
	} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", key, v, err)
			}
			*dst = b
		}
	}

	return nil
}
