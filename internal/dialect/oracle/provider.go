// Package oracle is the Oracle Database provider, built on the pure-Go
// sijms/go-ora driver.
package oracle

import (
	"context"
	"database/sql"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

const VersionQuery = "SELECT version AS version FROM product_component_version WHERE product LIKE 'Oracle%' AND ROWNUM = 1"

var builders = core.Builders{DDL: DDL{}, DML: DML{}, DCL: DCL{}, TCL: TCL{}}

type Provider struct {
	opts []sqlclient.Option
}

var _ core.Provider = (*Provider)(nil)

func New(opts ...sqlclient.Option) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Dialect() core.Dialect { return core.Oracle }

func (p *Provider) Capabilities() core.CapabilityMatrix { return Baseline() }

func (p *Provider) Builders() core.Builders { return builders }

func (p *Provider) NewIntrospector(q core.Querier) core.Introspector { return NewIntrospector(q) }

func Flavor() sqlclient.Flavor {
	return sqlclient.Flavor{
		Dialect:      core.Oracle,
		Baseline:     Baseline(),
		VersionQuery: VersionQuery,
		Refine:       Refine,
		Builders:     builders,
		TxOptions:    txOptions,
	}
}

// Connect opens the pool through go-ora's "oracle" driver, registered by
// the package import in config.go.
func (p *Provider) Connect(ctx context.Context, cfg core.ConnConfig) (core.Client, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, core.ConnectionError(core.Oracle, "connect", err)
	}
	cfg.ApplyPool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.ConnectionError(core.Oracle, "connect", err)
	}
	return sqlclient.New(db, Flavor(), p.opts...), nil
}
