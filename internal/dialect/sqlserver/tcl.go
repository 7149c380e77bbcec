package sqlserver

import (
	"database/sql"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
	"sqlbridge/internal/sqlgen"
)

// maxSavepointName is the T-SQL limit on savepoint names. Longer names,
// including generated ones, are cut to it consistently.
const maxSavepointName = 32

type TCL struct{}

var _ core.TCLBuilder = TCL{}

func (TCL) Begin() string    { return "BEGIN TRANSACTION" }
func (TCL) Commit() string   { return "COMMIT TRANSACTION" }
func (TCL) Rollback() string { return "ROLLBACK TRANSACTION" }

func (TCL) Savepoint(name string) string  { return "SAVE TRANSACTION " + savepoint(name) }
func (TCL) RollbackTo(name string) string { return "ROLLBACK TRANSACTION " + savepoint(name) }

// ReleaseSavepoint renders nothing; T-SQL savepoints live until the
// transaction ends.
func (TCL) ReleaseSavepoint(string) string { return "" }

func savepoint(name string) string {
	if len(name) > maxSavepointName {
		name = name[:maxSavepointName]
	}
	return quote.Ident(name)
}

func (TCL) SetIsolation(level core.IsolationLevel) (string, error) {
	kw, err := sqlgen.IsolationKeyword(level)
	if err != nil {
		return "", core.InvalidInput(core.SQLServer, "set isolation", err.Error())
	}
	return "SET TRANSACTION ISOLATION LEVEL " + kw, nil
}

// txOptions drops ReadOnly, which go-mssqldb refuses.
func txOptions(o core.TxOptions) (*sql.TxOptions, error) {
	return sqlclient.StdTxOptions(core.TxOptions{Isolation: o.Isolation})
}
