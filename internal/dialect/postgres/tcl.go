package postgres

import (
	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

type TCL struct{}

var _ core.TCLBuilder = TCL{}

func (TCL) Begin() string    { return "BEGIN" }
func (TCL) Commit() string   { return "COMMIT" }
func (TCL) Rollback() string { return "ROLLBACK" }

func (TCL) Savepoint(name string) string        { return "SAVEPOINT " + quote.Ident(name) }
func (TCL) RollbackTo(name string) string       { return "ROLLBACK TO SAVEPOINT " + quote.Ident(name) }
func (TCL) ReleaseSavepoint(name string) string { return "RELEASE SAVEPOINT " + quote.Ident(name) }

// SetIsolation must be the first statement of a transaction.
func (TCL) SetIsolation(level core.IsolationLevel) (string, error) {
	kw, err := sqlgen.IsolationKeyword(level)
	if err != nil {
		return "", core.InvalidInput(core.PostgreSQL, "set isolation", err.Error())
	}
	return "SET TRANSACTION ISOLATION LEVEL " + kw, nil
}
