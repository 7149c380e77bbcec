package postgres

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"sqlbridge/internal/core"
)

const defaultPort = 5432

// DSN renders cfg for lib/pq. postgres:// URLs are validated with
// pq.ParseURL and get Params merged into their query; key=value
// connection strings pass through with Params appended. Discrete fields
// become a key=value string with sslmode=disable unless Params say
// otherwise.
func DSN(cfg core.ConnConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		if strings.Contains(dsn, "://") {
			return urlDSN(dsn, cfg.Params)
		}
		return appendParams(dsn, cfg.Params), nil
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	kv := map[string]string{
		"host":    host,
		"port":    strconv.Itoa(port),
		"sslmode": "disable",
	}
	if cfg.User != "" {
		kv["user"] = cfg.User
	}
	if cfg.Password != "" {
		kv["password"] = cfg.Password
	}
	if cfg.Database != "" {
		kv["dbname"] = cfg.Database
	}
	for k, v := range cfg.Params {
		kv[k] = v
	}
	return conninfo(kv), nil
}

func urlDSN(dsn string, params map[string]string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", configError("malformed connection URL")
	}
	// lib/pq only accepts these two schemes
	u.Scheme = "postgres"
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	out := u.String()
	if _, err := pq.ParseURL(out); err != nil {
		return "", configError("malformed connection URL")
	}
	return out, nil
}

func appendParams(dsn string, params map[string]string) string {
	if len(params) == 0 {
		return dsn
	}
	return dsn + " " + conninfo(params)
}

// conninfo renders sorted key='value' pairs, escaping quotes and
// backslashes the way libpq expects.
func conninfo(kv map[string]string) string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + conninfoValue(kv[k])
	}
	return strings.Join(parts, " ")
}

func conninfoValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}

func configError(msg string) error {
	return core.NewError(core.ErrConfig, core.PostgreSQL, "connect", msg, nil)
}
