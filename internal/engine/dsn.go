package engine

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// BuildDSN returns the engine-native DSN for the configuration. When
// cfg.DSN is set it takes precedence and is only sanitized; otherwise the
// DSN is assembled from the discrete fields, filling in the driver's default
// port.
func BuildDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return SanitizeDSN(cfg.Driver, cfg.DSN), nil
	}

	port := cfg.Port
	if port == 0 {
		port = cfg.Driver.DefaultPort()
	}

	switch cfg.Driver {
	case SQLite:
		path := cfg.Path
		if path == "" {
			if cfg.Database == "" {
				return "", fmt.Errorf("sqlite requires a database file path")
			}
			path = cfg.Database + ".db"
		}
		return path, nil
	case Postgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			url.PathEscape(cfg.User), url.PathEscape(cfg.Password),
			cfg.Host, port, cfg.Database), nil
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Database), nil
	case Oracle:
		return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
			url.PathEscape(cfg.User), url.PathEscape(cfg.Password),
			cfg.Host, port, cfg.Database), nil
	case SQLServer:
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			url.PathEscape(cfg.User), url.PathEscape(cfg.Password),
			cfg.Host, port, url.QueryEscape(cfg.Database)), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// SanitizeDSN ensures that URL-style DSNs (postgres://, sqlserver://,
// oracle://) have their userinfo (especially the password) properly
// percent-encoded. Raw passwords containing @, #, %, or other URL-special
// characters cause the Go URL parser to mis-split the authority component.
//
// MySQL DSNs are normalized to use the tcp() wrapper required by
// go-sql-driver. SQLite DSNs are file paths and are returned unchanged.
func SanitizeDSN(driver Driver, dsn string) string {
	switch driver {
	case Postgres, SQLServer, Oracle:
		return sanitizeURLDSN(dsn)
	case MySQL:
		return sanitizeMySQLDSN(dsn)
	default:
		return dsn
	}
}

// mysqlBareHostPort matches "user:pass@host:port/db" (no tcp() wrapper, no
// () wrapper). We look for the last "@" followed by what looks like
// host:port/db.
var mysqlBareHostPort = regexp.MustCompile(`^(.+)@([^(@]+:\d+)(/.*)?$`)

// sanitizeMySQLDSN normalizes a MySQL DSN so that go-sql-driver/mysql can
// parse it correctly. The driver requires the format:
//
//	user:pass@tcp(host:port)/dbname
//
// Common mistakes from users:
//
//	user:pass@host:port/db          → missing tcp() wrapper
//	user:pass@(host:port)/db        → missing "tcp" before parens
//	user:pass@tcp(host:port)/db     → already correct
//
// When the password contains "@", the driver's ParseDSN splits on the last
// "@" before "/". This works ONLY when "tcp(" is present, otherwise the
// parser treats the password fragment as a network name.
func sanitizeMySQLDSN(dsn string) string {
	// If it already parses cleanly and has a known network, trust it.
	if cfg, err := mysqldriver.ParseDSN(dsn); err == nil && (cfg.Net == "tcp" || cfg.Net == "unix") {
		return cfg.FormatDSN()
	}

	// Pattern: user:pass@(host:port)/db, missing the "tcp" keyword.
	if idx := strings.LastIndex(dsn, "@("); idx >= 0 {
		fixed := dsn[:idx] + "@tcp" + dsn[idx+1:]
		if cfg, err := mysqldriver.ParseDSN(fixed); err == nil {
			return cfg.FormatDSN()
		}
	}

	// Pattern: user:pass@host:port/db with no parens at all.
	if m := mysqlBareHostPort.FindStringSubmatch(dsn); m != nil {
		fixed := m[1] + "@tcp(" + m[2] + ")" + m[3]
		if cfg, err := mysqldriver.ParseDSN(fixed); err == nil {
			return cfg.FormatDSN()
		}
	}

	// Nothing worked. Return as-is and let the connect call give a clear error.
	return dsn
}

// sanitizeURLDSN parses a DSN that begins with a scheme (e.g.
// postgres://user:p@ss#word@host/db) and re-encodes the password so the URL
// library can parse it unambiguously.
func sanitizeURLDSN(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	if schemeEnd < 0 {
		return dsn // not a URL-style DSN, return as-is
	}

	scheme := dsn[:schemeEnd]
	rest := dsn[schemeEnd+3:]

	// Split off query/fragment from the authority+path portion.
	query := ""
	if qi := strings.IndexByte(rest, '?'); qi >= 0 {
		query = rest[qi:]
		rest = rest[:qi]
	}

	// Find the LAST '@'. Everything before it is userinfo, everything after
	// is host+path.
	atIdx := strings.LastIndex(rest, "@")
	if atIdx < 0 {
		return dsn // no credentials in the DSN
	}

	userinfo := rest[:atIdx]
	hostpath := rest[atIdx+1:]

	// Split userinfo into user and password at the FIRST ':'.
	user := userinfo
	pass := ""
	if ci := strings.IndexByte(userinfo, ':'); ci >= 0 {
		user = userinfo[:ci]
		pass = userinfo[ci+1:]
	}

	// Re-encode. url.QueryEscape encodes spaces as '+' which isn't great for
	// passwords; url.PathEscape covers the characters that break parsing.
	return scheme + "://" + url.PathEscape(user) + ":" + url.PathEscape(pass) + "@" + hostpath + query
}
