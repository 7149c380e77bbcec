package mysql

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"sqlbridge/internal/core"
)

const defaultPort = 3306

// DSN renders cfg as a go-sql-driver DSN. A driver-native DSN is validated
// and passed through; URL forms and discrete fields are assembled with
// parseTime enabled so DATETIME columns scan into time.Time.
func DSN(cfg core.ConnConfig) (string, error) {
	if cfg.DSN != "" && !strings.Contains(cfg.DSN, "://") {
		c, err := gomysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", configError("invalid mysql DSN")
		}
		applyParams(c, cfg.Params)
		return c.FormatDSN(), nil
	}

	c := gomysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	if strings.HasPrefix(host, "/") {
		c.Net = "unix"
		c.Addr = host
	} else {
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		c.Net = "tcp"
		c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	applyParams(c, cfg.Params)
	return c.FormatDSN(), nil
}

// applyParams routes known driver options through ParseDSN and keeps the
// rest as session variables.
func applyParams(c *gomysql.Config, params map[string]string) {
	if len(params) == 0 {
		return
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	parsed, err := gomysql.ParseDSN("/?" + q.Encode())
	if err != nil {
		return
	}
	if _, ok := params["parseTime"]; ok {
		c.ParseTime = parsed.ParseTime
	}
	if _, ok := params["loc"]; ok {
		c.Loc = parsed.Loc
	}
	if _, ok := params["timeout"]; ok {
		c.Timeout = parsed.Timeout
	}
	if _, ok := params["readTimeout"]; ok {
		c.ReadTimeout = parsed.ReadTimeout
	}
	if _, ok := params["writeTimeout"]; ok {
		c.WriteTimeout = parsed.WriteTimeout
	}
	if _, ok := params["multiStatements"]; ok {
		c.MultiStatements = parsed.MultiStatements
	}
	if _, ok := params["tls"]; ok {
		c.TLSConfig = parsed.TLSConfig
	}
	if v, ok := params["collation"]; ok {
		c.Collation = v
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	// the DSN parser keeps charset private; written back as a parameter it
	// round-trips through sql.Open
	if v, ok := params["charset"]; ok {
		c.Params["charset"] = v
	}
	for k, v := range parsed.Params {
		c.Params[k] = v
	}
}

func configError(msg string) error {
	return core.NewError(core.ErrConfig, core.MySQL, "connect", msg, nil)
}
