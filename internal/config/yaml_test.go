package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tablekit/tablekit/internal/engine"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tablekit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadYAMLConfig(t *testing.T) {
	path := writeTempConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
  rate_limit: 50
databases:
  - name: school
    driver: postgres
    host: db.internal
    user: app
    password: secret
    database: school
  - name: local
    driver: sqlite
    path: local.db
export:
  dir: out
logging:
  level: debug
  format: json
`)

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Databases) != 2 {
		t.Fatalf("len(Databases) = %d, want 2", len(cfg.Databases))
	}
	if cfg.Export.Dir != "out" {
		t.Errorf("export dir = %q", cfg.Export.Dir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadYAMLConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	path := writeTempConfig(t, `
databases:
  - name: school
    driver: postgres
    host: localhost
    user: app
    password: ${TEST_DB_PASSWORD}
    database: school
`)

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig failed: %v", err)
	}
	if cfg.Databases[0].Password != "s3cret" {
		t.Errorf("password = %q, want expanded env value", cfg.Databases[0].Password)
	}
}

func TestLoadYAMLConfigMissingFile(t *testing.T) {
	if _, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadYAMLConfig succeeded for a missing file")
	}
}

func TestDatabaseLookup(t *testing.T) {
	cfg := &YAMLConfig{Databases: []DatabaseYAML{{Name: "a"}, {Name: "b"}}}

	entry, err := cfg.Database("b")
	if err != nil || entry.Name != "b" {
		t.Errorf("Database(b) = %+v, %v", entry, err)
	}
	if _, err := cfg.Database("c"); err == nil {
		t.Error("Database(c) found a missing entry")
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	entry := DatabaseYAML{
		Name:     "school",
		Driver:   "postgres",
		Host:     "localhost",
		User:     "app",
		Password: "secret",
		Database: "school",
	}

	cfg, err := entry.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if cfg.Driver != engine.Postgres {
		t.Errorf("driver = %q", cfg.Driver)
	}
	if cfg.Port != 5432 {
		t.Errorf("port = %d, want driver default 5432", cfg.Port)
	}
	if cfg.Schema != "public" {
		t.Errorf("schema = %q, want driver default public", cfg.Schema)
	}
}

func TestEngineConfigPool(t *testing.T) {
	entry := DatabaseYAML{
		Name:   "school",
		Driver: "mysql",
		Pool: &PoolYAMLConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: "5m",
		},
	}

	cfg, err := entry.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if cfg.MaxOpenConns != 10 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Minutes() != 5 {
		t.Errorf("conn max lifetime = %v", cfg.ConnMaxLifetime)
	}

	entry.Pool.ConnMaxLifetime = "not-a-duration"
	if _, err := entry.EngineConfig(); err == nil {
		t.Error("EngineConfig accepted a bad duration")
	}
}

func TestEngineConfigBadDriver(t *testing.T) {
	entry := DatabaseYAML{Name: "x", Driver: "mongodb"}
	if _, err := entry.EngineConfig(); err == nil {
		t.Error("EngineConfig accepted an unsupported driver")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablekit.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig failed: %v", err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig failed on written default: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if len(cfg.Databases) == 0 {
		t.Error("default config has no example database entry")
	}
}
