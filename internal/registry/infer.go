package registry

import (
	"cmp"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"sqlbridge/internal/core"
)

type alias struct {
	name    string
	dialect core.Dialect
}

// aliases is sorted longest name first; the substring heuristic takes the
// first hit.
var aliases = func() []alias {
	a := []alias{
		{"mysql", core.MySQL}, {"mysql2", core.MySQL}, {"mysqlx", core.MySQL},
		{"mariadb", core.MySQL}, {"jdbc:mysql", core.MySQL}, {"jdbc:mariadb", core.MySQL},

		{"postgres", core.PostgreSQL}, {"postgresql", core.PostgreSQL}, {"pg", core.PostgreSQL},
		{"psql", core.PostgreSQL}, {"cockroach", core.PostgreSQL}, {"cockroachdb", core.PostgreSQL},
		{"jdbc:postgresql", core.PostgreSQL},

		{"sqlite", core.SQLite}, {"sqlite3", core.SQLite}, {"file", core.SQLite},
		{":memory:", core.SQLite}, {"jdbc:sqlite", core.SQLite},

		{"sqlserver", core.SQLServer}, {"mssql", core.SQLServer}, {"jdbc:sqlserver", core.SQLServer},

		{"oracle", core.Oracle}, {"oci", core.Oracle}, {"jdbc:oracle", core.Oracle},
	}
	slices.SortStableFunc(a, func(x, y alias) int {
		return cmp.Compare(len(y.name), len(x.name))
	})
	return a
}()

// Synonym resolves an exact dialect name or alias, case-insensitively.
func Synonym(name string) core.Dialect {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range aliases {
		if a.name == name {
			return a.dialect
		}
	}
	return core.Unknown
}

var (
	sqliteFileRe = regexp.MustCompile(`(?i)(^|[/\\])[^/\\]+\.(db|sqlite3?)$`)
	jdbcRe       = regexp.MustCompile(`(?i)^jdbc:([a-z0-9]+):`)
	schemeRe     = regexp.MustCompile(`(?i)^([a-z][a-z0-9+.\-]*)://`)
	// go-sql-driver style: user:pass@tcp(host:3306)/db
	mysqlNativeRe = regexp.MustCompile(`@(tcp|unix)\(`)
	// lib/pq key/value style: host=... dbname=...
	pqNativeRe = regexp.MustCompile(`(?i)(^|\s)dbname=`)
)

// hintKeys are consulted in order on map-shaped configuration.
var hintKeys = []string{"dialect", "driver", "dbms", "engine", "type", "vendor"}

var fileKeys = []string{"filename", "file", "storage", "path"}

var defaultPorts = map[int]core.Dialect{
	5432: core.PostgreSQL,
	3306: core.MySQL,
	1433: core.SQLServer,
}

// InferDialect guesses the dialect of a connection source: a string, a
// *url.URL, a map[string]any, a map[string]string or a core.ConnConfig. It
// returns core.Unknown when nothing matches.
func InferDialect(src any) core.Dialect {
	switch s := src.(type) {
	case string:
		return inferString(s)
	case *url.URL:
		if s == nil {
			return core.Unknown
		}
		return schemeDialect(s.Scheme)
	case core.ConnConfig:
		return inferConfig(s)
	case *core.ConnConfig:
		if s == nil {
			return core.Unknown
		}
		return inferConfig(*s)
	case map[string]string:
		m := make(map[string]any, len(s))
		for k, v := range s {
			m[k] = v
		}
		return inferMap(m)
	case map[string]any:
		return inferMap(s)
	}
	return core.Unknown
}

func inferString(s string) core.Dialect {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Unknown
	}
	lower := strings.ToLower(s)

	if lower == ":memory:" || strings.HasPrefix(lower, "sqlite:") || strings.HasPrefix(lower, "file:") {
		return core.SQLite
	}
	if !strings.Contains(s, "://") && sqliteFileRe.MatchString(s) {
		return core.SQLite
	}
	if m := jdbcRe.FindStringSubmatch(s); m != nil {
		if d := Synonym(m[1]); d != core.Unknown {
			return d
		}
	}
	if m := schemeRe.FindStringSubmatch(s); m != nil {
		if d := schemeDialect(m[1]); d != core.Unknown {
			return d
		}
	}
	if mysqlNativeRe.MatchString(s) {
		return core.MySQL
	}
	if pqNativeRe.MatchString(s) {
		return core.PostgreSQL
	}
	for _, a := range aliases {
		if strings.Contains(lower, a.name) {
			return a.dialect
		}
	}
	return core.Unknown
}

// schemeDialect strips a "+suffix" (postgres+ssl) before the lookup.
func schemeDialect(scheme string) core.Dialect {
	if i := strings.IndexByte(scheme, '+'); i >= 0 {
		scheme = scheme[:i]
	}
	return Synonym(scheme)
}

func inferConfig(c core.ConnConfig) core.Dialect {
	if c.Dialect != core.Unknown {
		if d := Synonym(string(c.Dialect)); d != core.Unknown {
			return d
		}
	}
	if c.DSN != "" {
		if d := inferString(c.DSN); d != core.Unknown {
			return d
		}
	}
	if d, ok := defaultPorts[c.Port]; ok {
		return d
	}
	if c.File != "" {
		return core.SQLite
	}
	return core.Unknown
}

func inferMap(m map[string]any) core.Dialect {
	get := func(key string) (any, bool) {
		for k, v := range m {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
		return nil, false
	}

	for _, key := range hintKeys {
		v, ok := get(key)
		if !ok {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil || s == "" {
			continue
		}
		if d := Synonym(s); d != core.Unknown {
			return d
		}
		if d := inferString(s); d != core.Unknown {
			return d
		}
	}
	for _, key := range []string{"dsn", "url", "uri", "connectionString"} {
		if v, ok := get(key); ok {
			if d := inferString(cast.ToString(v)); d != core.Unknown {
				return d
			}
		}
	}
	if v, ok := get("port"); ok {
		if port, err := cast.ToIntE(v); err == nil {
			if d, ok := defaultPorts[port]; ok {
				return d
			}
		}
	}
	for _, key := range fileKeys {
		if v, ok := get(key); ok && cast.ToString(v) != "" {
			return core.SQLite
		}
	}
	return core.Unknown
}
