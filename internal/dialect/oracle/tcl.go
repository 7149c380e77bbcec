package oracle

import (
	"database/sql"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlclient"
)

// maxSavepointName is the identifier limit before 12.2 long identifiers.
const maxSavepointName = 30

// TCL renders transaction control. Oracle opens transactions implicitly;
// Begin marks the start explicitly.
type TCL struct{}

var _ core.TCLBuilder = TCL{}

func (TCL) Begin() string    { return "SET TRANSACTION READ WRITE" }
func (TCL) Commit() string   { return "COMMIT" }
func (TCL) Rollback() string { return "ROLLBACK" }

func (TCL) Savepoint(name string) string  { return "SAVEPOINT " + savepoint(name) }
func (TCL) RollbackTo(name string) string { return "ROLLBACK TO SAVEPOINT " + savepoint(name) }

// ReleaseSavepoint renders nothing; Oracle keeps savepoints until the
// transaction ends.
func (TCL) ReleaseSavepoint(string) string { return "" }

func savepoint(name string) string {
	if len(name) > maxSavepointName {
		name = name[:maxSavepointName]
	}
	return quote.Ident(name)
}

// SetIsolation knows the two levels Oracle implements.
func (TCL) SetIsolation(level core.IsolationLevel) (string, error) {
	switch level {
	case core.ReadCommitted:
		return "SET TRANSACTION ISOLATION LEVEL READ COMMITTED", nil
	case core.Serializable:
		return "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE", nil
	}
	return "", unsupported("set isolation", "isolation level "+string(level))
}

func txOptions(o core.TxOptions) (*sql.TxOptions, error) {
	switch o.Isolation {
	case core.ReadUncommitted, core.RepeatableRead:
		return nil, unsupported("begin", "isolation level "+string(o.Isolation))
	}
	return sqlclient.StdTxOptions(o)
}
