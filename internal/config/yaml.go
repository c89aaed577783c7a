package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tablekit/tablekit/internal/engine"
)

// YAMLConfig represents the top-level tablekit configuration file.
type YAMLConfig struct {
	Server    ServerConfig   `yaml:"server"`
	Databases []DatabaseYAML `yaml:"databases"`
	Export    ExportConfig   `yaml:"export"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	RateLimit       int        `yaml:"rate_limit"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
}

// DatabaseYAML defines one database connection in the configuration file.
// Either a full DSN or the discrete host fields may be given; discrete
// fields fall back to the driver's default port and schema.
type DatabaseYAML struct {
	Name     string          `yaml:"name"`
	Driver   string          `yaml:"driver"`
	DSN      string          `yaml:"dsn"`
	Path     string          `yaml:"path"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	User     string          `yaml:"user"`
	Password string          `yaml:"password"`
	Database string          `yaml:"database"`
	Schema   string          `yaml:"schema"`
	Pool     *PoolYAMLConfig `yaml:"pool,omitempty"`
}

// PoolYAMLConfig controls the connection pool for a database entry.
type PoolYAMLConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// ExportConfig controls schema export output.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	var cfg YAMLConfig
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// Database returns the named database entry.
func (c *YAMLConfig) Database(name string) (*DatabaseYAML, error) {
	for i := range c.Databases {
		if c.Databases[i].Name == name {
			return &c.Databases[i], nil
		}
	}
	return nil, fmt.Errorf("no database named %q in configuration", name)
}

// EngineConfig converts a database entry into an engine configuration,
// filling driver defaults for port and schema.
func (d *DatabaseYAML) EngineConfig() (engine.Config, error) {
	driver, err := engine.ParseDriver(d.Driver)
	if err != nil {
		return engine.Config{}, fmt.Errorf("database %q: %w", d.Name, err)
	}

	cfg := engine.Config{
		Driver:   driver,
		DSN:      d.DSN,
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Database,
		Schema:   d.Schema,
	}
	if cfg.Port == 0 {
		cfg.Port = driver.DefaultPort()
	}
	if cfg.Schema == "" {
		cfg.Schema = driver.DefaultSchema()
	}

	if d.Pool != nil {
		cfg.MaxOpenConns = d.Pool.MaxOpenConns
		cfg.MaxIdleConns = d.Pool.MaxIdleConns
		if d.Pool.ConnMaxLifetime != "" {
			lifetime, err := time.ParseDuration(d.Pool.ConnMaxLifetime)
			if err != nil {
				return engine.Config{}, fmt.Errorf("database %q: parse conn_max_lifetime: %w", d.Name, err)
			}
			cfg.ConnMaxLifetime = lifetime
		}
	}

	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			RateLimit:       100,
			CORS: CORSConfig{
				Origins: []string{"*"},
				Methods: []string{"GET"},
			},
		},
		Databases: []DatabaseYAML{
			{
				Name:   "example",
				Driver: "sqlite",
				Path:   "example.db",
			},
		},
		Export: ExportConfig{
			Dir: "schemas",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
