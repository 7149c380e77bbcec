// Package sqlserver is the Microsoft SQL Server provider, built on
// microsoft/go-mssqldb.
package sqlserver

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

// VersionQuery casts ProductVersion, a sql_variant, to text.
const VersionQuery = "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128)) AS version"

var builders = core.Builders{DDL: DDL{}, DML: DML{}, DCL: DCL{}, TCL: TCL{}}

type Provider struct {
	opts []sqlclient.Option
}

var _ core.Provider = (*Provider)(nil)

func New(opts ...sqlclient.Option) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Dialect() core.Dialect { return core.SQLServer }

func (p *Provider) Capabilities() core.CapabilityMatrix { return Baseline() }

func (p *Provider) Builders() core.Builders { return builders }

func (p *Provider) NewIntrospector(q core.Querier) core.Introspector { return NewIntrospector(q) }

func Flavor() sqlclient.Flavor {
	return sqlclient.Flavor{
		Dialect:      core.SQLServer,
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
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, core.ConnectionError(core.SQLServer, "connect", err)
	}
	cfg.ApplyPool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.ConnectionError(core.SQLServer, "connect", err)
	}
	return sqlclient.New(db, Flavor(), p.opts...), nil
}
