package mysql

import (
	"fmt"
	"slices"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DML renders MySQL data statements.
type DML struct{}

var _ core.DMLBuilder = DML{}

func (DML) Placeholder(int) string { return "?" }

func (d DML) Insert(t core.TableIdent, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote.Table(t), quote.List(columns), sqlgen.Placeholders(len(columns), d.Placeholder))
}

// Upsert renders INSERT ... ON DUPLICATE KEY UPDATE. MySQL resolves the
// conflict on any unique key, so conflictKeys only decide which columns are
// left out of the update list. When every column is a key the update is a
// no-op assignment to keep the statement valid.
func (d DML) Upsert(t core.TableIdent, row map[string]any, conflictKeys []string, returning []string) (core.Statement, error) {
	if len(row) == 0 {
		return core.Statement{}, core.InvalidInput(core.MySQL, "upsert", "row has no columns")
	}
	if len(conflictKeys) == 0 {
		return core.Statement{}, core.InvalidInput(core.MySQL, "upsert", "no conflict keys given")
	}
	if len(returning) > 0 {
		return core.Statement{}, unsupported("upsert", "RETURNING")
	}
	cols := sqlgen.SortedKeys(row)
	args := make([]any, len(cols))
	var updates []string
	for i, c := range cols {
		args[i] = row[c]
		if !slices.Contains(conflictKeys, c) {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", quote.Ident(c), quote.Ident(c)))
		}
	}
	if len(updates) == 0 {
		k := quote.Ident(conflictKeys[0])
		updates = append(updates, k+" = "+k)
	}
	query := d.Insert(t, cols) + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	return core.Statement{SQL: query, Args: args}, nil
}

func (DML) Paginate(query string, limit, offset int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sqlgen.TrimStatement(query), limit, offset)
}
