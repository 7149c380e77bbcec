// Package dialect gathers the providers of every supported engine so
// binaries can register them in one call:
//
//	registry.RegisterAll(dialect.Providers()...)
package dialect

import (
	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/mysql"
	"sqlbridge/internal/dialect/oracle"
	"sqlbridge/internal/dialect/postgres"
	"sqlbridge/internal/dialect/sqlite"
	"sqlbridge/internal/dialect/sqlserver"
	"sqlbridge/internal/sqlclient"
)

// Providers returns one provider per dialect, in core.Dialects order. opts
// are passed to every client the providers connect.
func Providers(opts ...sqlclient.Option) []core.Provider {
	return []core.Provider{
		mysql.New(opts...),
		postgres.New(opts...),
		sqlite.New(opts...),
		sqlserver.New(opts...),
		oracle.New(opts...),
	}
}

// IdentityInserter is implemented by DDL builders whose engine refuses
// explicit values in identity columns unless told otherwise per table.
type IdentityInserter interface {
	IdentityInsert(t core.TableIdent, on bool) string
}
