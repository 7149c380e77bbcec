package sqlite

import (
	"database/sql"

	"sqlbridge/internal/core"
)

type TCL struct{}

var _ core.TCLBuilder = TCL{}

func (TCL) Begin() string    { return "BEGIN" }
func (TCL) Commit() string   { return "COMMIT" }
func (TCL) Rollback() string { return "ROLLBACK" }

func (TCL) Savepoint(name string) string        { return "SAVEPOINT " + quote.Ident(name) }
func (TCL) RollbackTo(name string) string       { return "ROLLBACK TO SAVEPOINT " + quote.Ident(name) }
func (TCL) ReleaseSavepoint(name string) string { return "RELEASE SAVEPOINT " + quote.Ident(name) }

// SetIsolation maps onto the read_uncommitted pragma, the only knob SQLite
// has. It matters for shared-cache connections only.
func (TCL) SetIsolation(level core.IsolationLevel) (string, error) {
	switch level {
	case core.ReadUncommitted:
		return "PRAGMA read_uncommitted = 1", nil
	case core.Serializable:
		return "PRAGMA read_uncommitted = 0", nil
	}
	return "", unsupported("set isolation", "isolation level "+string(level))
}

// txOptions accepts every level: SQLite transactions are serializable,
// which satisfies the weaker ones. Read-only transactions do not exist.
func txOptions(o core.TxOptions) (*sql.TxOptions, error) {
	if o.Isolation != core.IsolationDefault && !o.Isolation.Valid() {
		return nil, core.InvalidInput(core.SQLite, "begin", "unknown isolation level "+string(o.Isolation))
	}
	return &sql.TxOptions{Isolation: sql.LevelDefault}, nil
}
