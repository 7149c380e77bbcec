// Package mysql is the MySQL and MariaDB provider.
package mysql

import (
	"context"
	"database/sql"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

// VersionQuery feeds capability detection. The comment carries the
// "MariaDB" marker on MariaDB servers.
const VersionQuery = "SELECT @@version AS version, @@version_comment AS comment, @@character_set_server AS charset"

var builders = core.Builders{DDL: DDL{}, DML: DML{}, DCL: DCL{}, TCL: TCL{}}

// Provider connects through go-sql-driver/mysql.
type Provider struct {
	opts []sqlclient.Option
}

var _ core.Provider = (*Provider)(nil)

// New returns a provider whose clients are built with opts.
func New(opts ...sqlclient.Option) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Dialect() core.Dialect { return core.MySQL }

func (p *Provider) Capabilities() core.CapabilityMatrix { return Baseline() }

func (p *Provider) Builders() core.Builders { return builders }

func (p *Provider) NewIntrospector(q core.Querier) core.Introspector { return NewIntrospector(q) }

// Flavor is the shared client configuration for MySQL.
func Flavor() sqlclient.Flavor {
	return sqlclient.Flavor{
		Dialect:      core.MySQL,
		Baseline:     Baseline(),
		VersionQuery: VersionQuery,
		Refine:       Refine,
		Builders:     builders,
	}
}

// Connect opens a pool and pings it so that bad credentials fail here
// rather than on the first query.
func (p *Provider) Connect(ctx context.Context, cfg core.ConnConfig) (core.Client, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, core.ConnectionError(core.MySQL, "connect", err)
	}
	cfg.ApplyPool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.ConnectionError(core.MySQL, "connect", err)
	}
	return sqlclient.New(db, Flavor(), p.opts...), nil
}
