package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"-"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"-"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	SeedSourcePath            string        `koanf:"seed_source_path"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
}

const configFileENV = "CONFIG_FILE"

// New loads configuration from an optional YAML file (CONFIG_FILE, defaulting
// to ./config.yaml) with environment variables taking precedence.
func New() (*Config, error) {
	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        3,
		ServerHost:                "0.0.0.0",
		ServerPort:                3000,
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = "./config.yaml"
	}
	err := k.Load(file.Provider(configFile), yaml.Parser())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithStack(err)
	}

	// Environment variables override file values.
	err = k.Load(env.Provider("", ".", toSnakeCase), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.DatabaseFilePath == "" {
		return nil, errors.New("missing required config: DATABASE_FILE_PATH (database_file_path)")
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests: an in-memory database and
// no retry delays.
func NewForTest() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 1,
		DatabaseConnectRetryDelay: time.Millisecond,
		DatabaseFilePath:          ":memory:",
		DatabaseMaxRetries:        3,
		JWTSecret:                 "test-secret",
		ServerHost:                "127.0.0.1",
	}
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
