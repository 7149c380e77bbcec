package oracle

import (
	"net/url"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"sqlbridge/internal/core"
)

const defaultPort = 1521

// DSN renders cfg for go-ora. An oracle:// URL passes through with Params
// merged into its query. Discrete fields go through go_ora.BuildUrl, with
// Database naming the service.
func DSN(cfg core.ConnConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		if !strings.Contains(dsn, "://") {
			return "", configError("connection string must be an oracle:// URL")
		}
		u, err := url.Parse(dsn)
		if err != nil || u.Host == "" {
			return "", configError("malformed connection URL")
		}
		u.Scheme = "oracle"
		if len(cfg.Params) > 0 {
			q := u.Query()
			for k, v := range cfg.Params {
				q.Set(k, v)
			}
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}
	if cfg.Database == "" {
		return "", configError("service name (database) is required")
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return go_ora.BuildUrl(host, port, cfg.Database, cfg.User, cfg.Password, cfg.Params), nil
}

func configError(msg string) error {
	return core.NewError(core.ErrConfig, core.Oracle, "connect", msg, nil)
}
