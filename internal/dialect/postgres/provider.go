// Package postgres is the PostgreSQL provider, built on lib/pq.
package postgres

import (
	"context"
	"database/sql"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

const VersionQuery = "SELECT current_setting('server_version') AS version"

var builders = core.Builders{DDL: DDL{}, DML: DML{}, DCL: DCL{}, TCL: TCL{}}

type Provider struct {
	opts []sqlclient.Option
}

var _ core.Provider = (*Provider)(nil)

func New(opts ...sqlclient.Option) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Dialect() core.Dialect { return core.PostgreSQL }

func (p *Provider) Capabilities() core.CapabilityMatrix { return Baseline() }

func (p *Provider) Builders() core.Builders { return builders }

func (p *Provider) NewIntrospector(q core.Querier) core.Introspector { return NewIntrospector(q) }

func Flavor() sqlclient.Flavor {
	return sqlclient.Flavor{
		Dialect:      core.PostgreSQL,
		Baseline:     Baseline(),
		VersionQuery: VersionQuery,
		Refine:       Refine,
		Builders:     builders,
	}
}

func (p *Provider) Connect(ctx context.Context, cfg core.ConnConfig) (core.Client, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, core.ConnectionError(core.PostgreSQL, "connect", err)
	}
	cfg.ApplyPool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.ConnectionError(core.PostgreSQL, "connect", err)
	}
	return sqlclient.New(db, Flavor(), p.opts...), nil
}
