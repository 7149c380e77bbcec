package sqlite

import (
	"net/url"
	"strings"

	"sqlbridge/internal/core"
)

// defaultPragmas are applied to every connection unless Params carry their
// own _pragma.
var defaultPragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

// DSN renders cfg for modernc.org/sqlite. File names the database; the
// forms ":memory:" and "file:..." URIs are kept as they are.
func DSN(cfg core.ConnConfig) (string, error) {
	file := strings.TrimSpace(cfg.File)
	if file == "" {
		file = strings.TrimSpace(cfg.DSN)
	}
	if file == "" {
		return "", core.NewError(core.ErrConfig, core.SQLite, "connect", "no database file given", nil)
	}

	path, rawQuery, _ := strings.Cut(file, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", core.NewError(core.ErrConfig, core.SQLite, "connect", "malformed query parameters", nil)
	}
	for k, v := range cfg.Params {
		if k == "_pragma" {
			q.Add(k, v)
			continue
		}
		q.Set(k, v)
	}
	if _, ok := q["_pragma"]; !ok {
		q["_pragma"] = append([]string(nil), defaultPragmas...)
	}
	if q.Get("_time_format") == "" {
		q.Set("_time_format", "sqlite")
	}
	return path + "?" + q.Encode(), nil
}

// IsMemory reports whether cfg names an in-memory database. Such databases
// exist per connection, so the pool is limited to one.
func IsMemory(cfg core.ConnConfig) bool {
	file := cfg.File
	if file == "" {
		file = cfg.DSN
	}
	return strings.Contains(file, ":memory:") || strings.Contains(file, "mode=memory")
}
