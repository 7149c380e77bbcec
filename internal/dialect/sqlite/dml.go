package sqlite

import (
	"fmt"
	"slices"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

type DML struct{}

var _ core.DMLBuilder = DML{}

func (DML) Placeholder(int) string { return "?" }

func (d DML) Insert(t core.TableIdent, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote.Table(t), quote.List(columns), sqlgen.Placeholders(len(columns), d.Placeholder))
}

// Upsert uses the ON CONFLICT clause of SQLite 3.24 and RETURNING of 3.35.
func (d DML) Upsert(t core.TableIdent, row map[string]any, conflictKeys []string, returning []string) (core.Statement, error) {
	if len(row) == 0 {
		return core.Statement{}, core.InvalidInput(core.SQLite, "upsert", "row has no columns")
	}
	if len(conflictKeys) == 0 {
		return core.Statement{}, core.InvalidInput(core.SQLite, "upsert", "no conflict keys given")
	}
	cols := sqlgen.SortedKeys(row)
	args := make([]any, len(cols))
	var updates []string
	for i, c := range cols {
		args[i] = row[c]
		if !slices.Contains(conflictKeys, c) {
			updates = append(updates, quote.Ident(c)+" = excluded."+quote.Ident(c))
		}
	}
	var b strings.Builder
	b.WriteString(d.Insert(t, cols))
	b.WriteString(" ON CONFLICT (" + quote.List(conflictKeys) + ")")
	if len(updates) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET " + strings.Join(updates, ", "))
	}
	if len(returning) > 0 {
		b.WriteString(" RETURNING " + quote.List(returning))
	}
	return core.Statement{SQL: b.String(), Args: args}, nil
}

func (DML) Paginate(query string, limit, offset int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sqlgen.TrimStatement(query), limit, offset)
}
