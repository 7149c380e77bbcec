package registry

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"sqlbridge/internal/core"
)

// keyAliases maps the spellings accepted in map-shaped configuration onto
// ConnConfig keys.
var keyAliases = map[string]string{
	"dialect":           "dialect",
	"dsn":               "dsn",
	"url":               "dsn",
	"uri":               "dsn",
	"connectionstring":  "dsn",
	"host":              "host",
	"hostname":          "host",
	"server":            "host",
	"port":              "port",
	"user":              "user",
	"username":          "user",
	"password":          "password",
	"pass":              "password",
	"database":          "database",
	"dbname":            "database",
	"db":                "database",
	"service":           "database",
	"filename":          "file",
	"file":              "file",
	"storage":           "file",
	"path":              "file",
	"params":            "params",
	"options":           "params",
	"max_open_conns":    "max_open_conns",
	"maxopenconns":      "max_open_conns",
	"max_idle_conns":    "max_idle_conns",
	"maxidleconns":      "max_idle_conns",
	"conn_max_lifetime": "conn_max_lifetime",
	"connmaxlifetime":   "conn_max_lifetime",
}

// NormalizeConfig turns a connection source into a ConnConfig with a known
// dialect. fallback is used when inference finds nothing. Errors are of
// class ErrConfig and never contain the password.
func NormalizeConfig(src any, fallback core.Dialect) (core.ConnConfig, error) {
	var (
		cfg core.ConnConfig
		err error
	)
	switch s := src.(type) {
	case string:
		cfg, err = fromString(s)
	case *url.URL:
		if s == nil {
			return cfg, configError("connection URL is nil")
		}
		cfg = fromURL(s)
		cfg.DSN = s.String()
	case core.ConnConfig:
		cfg = s
	case *core.ConnConfig:
		if s == nil {
			return cfg, configError("connection config is nil")
		}
		cfg = *s
	case map[string]string:
		m := make(map[string]any, len(s))
		for k, v := range s {
			m[k] = v
		}
		cfg, err = fromMap(m)
	case map[string]any:
		cfg, err = fromMap(s)
	default:
		return cfg, configError(fmt.Sprintf("unsupported connection source of type %T", src))
	}
	if err != nil {
		return core.ConnConfig{}, err
	}

	d := InferDialect(cfg)
	if d == core.Unknown {
		d = InferDialect(src)
	}
	if d == core.Unknown {
		d = fallback
	}
	if d == core.Unknown {
		return core.ConnConfig{}, configError("cannot infer a dialect from the connection source; set one explicitly")
	}
	if !d.Valid() {
		return core.ConnConfig{}, configError(fmt.Sprintf("unknown dialect %q", string(d)))
	}
	cfg.Dialect = d
	if d == core.SQLite && cfg.File == "" {
		cfg.File = sqliteFile(cfg.DSN, cfg.Params)
	}
	return cfg, nil
}

func configError(msg string) error {
	return core.NewError(core.ErrConfig, core.Unknown, "normalize config", msg, nil)
}

func fromString(s string) (core.ConnConfig, error) {
	s = strings.TrimSpace(s)
	cfg := core.ConnConfig{DSN: s}
	if s == "" {
		return cfg, configError("empty connection string")
	}
	if InferDialect(s) == core.SQLite && !strings.HasPrefix(strings.ToLower(s), "jdbc:") {
		cfg.Params = map[string]string{}
		cfg.File = sqliteFile(s, cfg.Params)
		if len(cfg.Params) == 0 {
			cfg.Params = nil
		}
		return cfg, nil
	}

	raw := s
	if strings.HasPrefix(strings.ToLower(raw), "jdbc:") {
		raw = raw[len("jdbc:"):]
	}
	if !schemeRe.MatchString(raw) {
		// driver-native DSN, handed to the provider untouched
		return cfg, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		// url errors quote the input, which may hold credentials
		return cfg, configError("malformed connection URL")
	}
	parsed := fromURL(u)
	parsed.DSN = s
	return parsed, nil
}

func fromURL(u *url.URL) core.ConnConfig {
	cfg := core.ConnConfig{
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
	}
	if p, err := strconv.Atoi(u.Port()); err == nil {
		cfg.Port = p
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k, v := range q {
			if len(v) > 0 {
				cfg.Params[k] = v[0]
			}
		}
	}
	return cfg
}

// sqliteFile extracts the database path from the sqlite forms InferDialect
// accepts. Query parameters are copied into params when it is non-nil.
func sqliteFile(dsn string, params map[string]string) string {
	s := strings.TrimSpace(dsn)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		s = s[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite3://"):
		s = s[len("sqlite3://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		s = s[len("sqlite:"):]
	case strings.HasPrefix(lower, "file:"):
		// modernc understands file: URIs as they are
		return s
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		if q, err := url.ParseQuery(s[i+1:]); err == nil && params != nil {
			for k, v := range q {
				if len(v) > 0 {
					params[k] = v[0]
				}
			}
		}
		s = s[:i]
	}
	return s
}

func fromMap(m map[string]any) (core.ConnConfig, error) {
	var cfg core.ConnConfig
	canon := make(map[string]any, len(m))
	for k, v := range m {
		if key, ok := keyAliases[strings.ToLower(k)]; ok {
			if _, dup := canon[key]; !dup {
				canon[key] = v
			}
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, configError(err.Error())
	}
	if err := dec.Decode(canon); err != nil {
		msg := err.Error()
		if pw, ok := canon["password"].(string); ok && pw != "" {
			msg = strings.ReplaceAll(msg, pw, "***")
		}
		return core.ConnConfig{}, configError("invalid connection settings: " + msg)
	}

	// a DSN next to discrete fields fills whatever the fields left empty
	if cfg.DSN != "" {
		parsed, err := fromString(cfg.DSN)
		if err != nil {
			return core.ConnConfig{}, err
		}
		merge(&cfg, parsed)
	}
	return cfg, nil
}

func merge(dst *core.ConnConfig, src core.ConnConfig) {
	if dst.Host == "" {
		dst.Host = src.Host
	}
	if dst.Port == 0 {
		dst.Port = src.Port
	}
	if dst.User == "" {
		dst.User = src.User
	}
	if dst.Password == "" {
		dst.Password = src.Password
	}
	if dst.Database == "" {
		dst.Database = src.Database
	}
	if dst.File == "" {
		dst.File = src.File
	}
	for k, v := range src.Params {
		if dst.Params == nil {
			dst.Params = map[string]string{}
		}
		if _, ok := dst.Params[k]; !ok {
			dst.Params[k] = v
		}
	}
}

// Detection is the result of ConnectAndDetect.
type Detection struct {
	Client       core.Client
	Provider     core.Provider
	Dialect      core.Dialect
	Capabilities core.CapabilityMatrix
}

// Connect normalizes src, resolves the provider and connects.
func (r *Registry) Connect(ctx context.Context, src any, fallback core.Dialect) (core.Client, error) {
	cfg, err := NormalizeConfig(src, fallback)
	if err != nil {
		return nil, err
	}
	p, err := r.Require(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return p.Connect(ctx, cfg)
}

// ConnectAndDetect connects and computes the capability matrix eagerly.
func (r *Registry) ConnectAndDetect(ctx context.Context, src any, fallback core.Dialect) (*Detection, error) {
	cfg, err := NormalizeConfig(src, fallback)
	if err != nil {
		return nil, err
	}
	p, err := r.Require(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Detection{
		Client:       c,
		Provider:     p,
		Dialect:      cfg.Dialect,
		Capabilities: c.Capabilities(ctx),
	}, nil
}

func Connect(ctx context.Context, src any, fallback core.Dialect) (core.Client, error) {
	return Default.Connect(ctx, src, fallback)
}

func ConnectAndDetect(ctx context.Context, src any, fallback core.Dialect) (*Detection, error) {
	return Default.ConnectAndDetect(ctx, src, fallback)
}
