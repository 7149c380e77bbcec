// Package sqlite is the SQLite provider, built on the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

const VersionQuery = "SELECT sqlite_version() AS version"

var builders = core.Builders{DDL: DDL{}, DML: DML{}, DCL: DCL{}, TCL: TCL{}}

type Provider struct {
	opts []sqlclient.Option
}

var _ core.Provider = (*Provider)(nil)

func New(opts ...sqlclient.Option) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Dialect() core.Dialect { return core.SQLite }

func (p *Provider) Capabilities() core.CapabilityMatrix { return Baseline() }

func (p *Provider) Builders() core.Builders { return builders }

func (p *Provider) NewIntrospector(q core.Querier) core.Introspector { return NewIntrospector(q) }

func Flavor() sqlclient.Flavor {
	return sqlclient.Flavor{
		Dialect:      core.SQLite,
		Baseline:     Baseline(),
		VersionQuery: VersionQuery,
		Refine:       Refine,
		Builders:     builders,
		TxOptions:    txOptions,
	}
}

func (p *Provider) Connect(ctx context.Context, cfg core.ConnConfig) (core.Client, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, core.ConnectionError(core.SQLite, "connect", err)
	}
	if IsMemory(cfg) {
		cfg.MaxOpenConns = 1
	}
	cfg.ApplyPool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.ConnectionError(core.SQLite, "connect", err)
	}
	return sqlclient.New(db, Flavor(), p.opts...), nil
}
