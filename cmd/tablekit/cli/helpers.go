package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/db"
	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/engine/mssql"
	"github.com/tablekit/tablekit/internal/engine/mysql"
	"github.com/tablekit/tablekit/internal/engine/oracle"
	"github.com/tablekit/tablekit/internal/engine/postgres"
	"github.com/tablekit/tablekit/internal/engine/sqlite"
	"github.com/tablekit/tablekit/internal/logging"
)

// newEngineRegistry creates an engine registry with all supported database
// drivers registered.
func newEngineRegistry() *engine.Registry {
	registry := engine.NewRegistry()
	registry.Register(engine.SQLite, func() engine.Engine { return sqlite.New() })
	registry.Register(engine.Postgres, func() engine.Engine { return postgres.New() })
	registry.Register(engine.MySQL, func() engine.Engine { return mysql.New() })
	registry.Register(engine.SQLServer, func() engine.Engine { return mssql.New() })
	registry.Register(engine.Oracle, func() engine.Engine { return oracle.New() })
	return registry
}

// loadConfig loads the tablekit YAML configuration from the --config flag
// or the default search path.
func loadConfig() (*config.YAMLConfig, error) {
	path := cfgFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		path = "tablekit.yaml"
	}
	return config.LoadYAMLConfig(path)
}

// newLogger builds the CLI logger from the configuration, with the
// TABLEKIT_LOGGING_LEVEL and TABLEKIT_LOGGING_FORMAT environment
// variables taking precedence.
func newLogger(cfg *config.YAMLConfig) zerolog.Logger {
	level := cfg.Logging.Level
	format := cfg.Logging.Format
	if v := viper.GetString("logging.level"); v != "" {
		level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		format = v
	}
	return logging.New(os.Stderr, level, format)
}

// openDatabase connects the named database from the configuration,
// prompting for a password when the entry has none and the driver needs
// one.
func openDatabase(cfg *config.YAMLConfig, name string, logger zerolog.Logger) (*db.Database, error) {
	entry, err := cfg.Database(name)
	if err != nil {
		return nil, err
	}

	engCfg, err := entry.EngineConfig()
	if err != nil {
		return nil, err
	}
	if needsPassword(engCfg) {
		password, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", engCfg.User, engCfg.Host))
		if err != nil {
			return nil, err
		}
		engCfg.Password = password
	}

	eng, err := newEngineRegistry().New(engCfg.Driver)
	if err != nil {
		return nil, err
	}
	return db.Open(eng, engCfg, logger)
}

// needsPassword reports whether the entry requires an interactive password
// prompt: a network driver configured with discrete fields, a user, and no
// password or DSN.
func needsPassword(cfg engine.Config) bool {
	if cfg.Driver == engine.SQLite || cfg.DSN != "" {
		return false
	}
	return cfg.User != "" && cfg.Password == ""
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}
