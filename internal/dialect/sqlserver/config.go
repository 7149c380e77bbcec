package sqlserver

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/microsoft/go-mssqldb/msdsn"

	"sqlbridge/internal/core"
)

const defaultPort = 1433

// DSN renders cfg for go-mssqldb. sqlserver:// URLs get Params merged
// into their query; ADO strings ("server=...;user id=...") get them
// appended. Discrete fields become a sqlserver:// URL. Every result is
// checked with msdsn.Parse.
func DSN(cfg core.ConnConfig) (string, error) {
	var out string
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		if strings.Contains(dsn, "://") {
			u, err := url.Parse(dsn)
			if err != nil {
				return "", configError("malformed connection URL")
			}
			u.Scheme = "sqlserver"
			mergeQuery(u, cfg.Params)
			out = u.String()
		} else {
			out = appendParams(dsn, cfg.Params)
		}
	} else {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		u := &url.URL{Scheme: "sqlserver", Host: net.JoinHostPort(host, strconv.Itoa(port))}
		switch {
		case cfg.User != "" && cfg.Password != "":
			u.User = url.UserPassword(cfg.User, cfg.Password)
		case cfg.User != "":
			u.User = url.User(cfg.User)
		}
		params := map[string]string{}
		if cfg.Database != "" {
			params["database"] = cfg.Database
		}
		for k, v := range cfg.Params {
			params[k] = v
		}
		mergeQuery(u, params)
		out = u.String()
	}
	if _, err := msdsn.Parse(out); err != nil {
		return "", configError("invalid connection string")
	}
	return out, nil
}

func mergeQuery(u *url.URL, params map[string]string) {
	if len(params) == 0 {
		return
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
}

// appendParams adds sorted key=value pairs to an ADO connection string.
func appendParams(dsn string, params map[string]string) string {
	if len(params) == 0 {
		return dsn
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{strings.TrimSuffix(dsn, ";")}
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, ";")
}

func configError(msg string) error {
	return core.NewError(core.ErrConfig, core.SQLServer, "connect", msg, nil)
}
