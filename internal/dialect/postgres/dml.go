package postgres

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

type DML struct{}

var _ core.DMLBuilder = DML{}

// Placeholder is zero-based: Placeholder(0) is $1.
func (DML) Placeholder(i int) string { return "$" + strconv.Itoa(i+1) }

func (d DML) Insert(t core.TableIdent, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote.Table(t), quote.List(columns), sqlgen.Placeholders(len(columns), d.Placeholder))
}

// Upsert renders INSERT ... ON CONFLICT (keys) DO UPDATE with EXCLUDED
// values. When every column is a key the conflict is ignored with DO
// NOTHING, which also means RETURNING yields no row for it.
func (d DML) Upsert(t core.TableIdent, row map[string]any, conflictKeys []string, returning []string) (core.Statement, error) {
	if len(row) == 0 {
		return core.Statement{}, core.InvalidInput(core.PostgreSQL, "upsert", "row has no columns")
	}
	if len(conflictKeys) == 0 {
		return core.Statement{}, core.InvalidInput(core.PostgreSQL, "upsert", "no conflict keys given")
	}
	cols := sqlgen.SortedKeys(row)
	args := make([]any, len(cols))
	var updates []string
	for i, c := range cols {
		args[i] = row[c]
		if !slices.Contains(conflictKeys, c) {
			updates = append(updates, quote.Ident(c)+" = EXCLUDED."+quote.Ident(c))
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
