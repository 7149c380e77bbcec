package sqlserver

import (
	"fmt"
	"slices"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

type DML struct{}

var _ core.DMLBuilder = DML{}

// Placeholder is go-mssqldb's ordinal form; i is zero-based.
func (DML) Placeholder(i int) string { return fmt.Sprintf("@p%d", i+1) }

func (d DML) Insert(t core.TableIdent, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote.Table(t), quote.List(columns), sqlgen.Placeholders(len(columns), d.Placeholder))
}

// Upsert is a MERGE under HOLDLOCK, which keeps two concurrent upserts of
// the same key from both inserting. RETURNING becomes OUTPUT inserted.*.
// MERGE must end with a semicolon.
func (d DML) Upsert(t core.TableIdent, row map[string]any, conflictKeys []string, returning []string) (core.Statement, error) {
	if len(row) == 0 {
		return core.Statement{}, core.InvalidInput(core.SQLServer, "upsert", "row has no columns")
	}
	if len(conflictKeys) == 0 {
		return core.Statement{}, core.InvalidInput(core.SQLServer, "upsert", "no conflict keys given")
	}
	cols := sqlgen.SortedKeys(row)
	args := make([]any, len(cols))
	source := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		args[i] = row[c]
		source[i] = "s." + quote.Ident(c)
		if !slices.Contains(conflictKeys, c) {
			updates = append(updates, "t."+quote.Ident(c)+" = s."+quote.Ident(c))
		}
	}
	on := make([]string, len(conflictKeys))
	for i, k := range conflictKeys {
		if _, ok := row[k]; !ok {
			return core.Statement{}, core.InvalidInput(core.SQLServer, "upsert", "conflict key "+k+" is not in the row")
		}
		on[i] = "t." + quote.Ident(k) + " = s." + quote.Ident(k)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS t USING (VALUES (%s)) AS s (%s) ON %s",
		quote.Table(t), sqlgen.Placeholders(len(cols), d.Placeholder), quote.List(cols), strings.Join(on, " AND "))
	if len(updates) > 0 {
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(updates, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)", quote.List(cols), strings.Join(source, ", "))
	if len(returning) > 0 {
		out := make([]string, len(returning))
		for i, c := range returning {
			out[i] = "inserted." + quote.Ident(c)
		}
		b.WriteString(" OUTPUT " + strings.Join(out, ", "))
	}
	b.WriteString(";")
	return core.Statement{SQL: b.String(), Args: args}, nil
}

// Paginate uses OFFSET/FETCH, which is only valid after an ORDER BY; a
// query without one gets ORDER BY (SELECT NULL) and no stable order.
func (DML) Paginate(query string, limit, offset int) string {
	query = sqlgen.TrimStatement(query)
	if !sqlgen.HasOrderBy(query) {
		query += " ORDER BY (SELECT NULL)"
	}
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}
