package oracle

import (
	"fmt"
	"slices"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

type DML struct{}

var _ core.DMLBuilder = DML{}

// Placeholder is the positional bind form; i is zero-based.
func (DML) Placeholder(i int) string { return fmt.Sprintf(":%d", i+1) }

func (d DML) Insert(t core.TableIdent, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote.Table(t), quote.List(columns), sqlgen.Placeholders(len(columns), d.Placeholder))
}

// Upsert is a MERGE from a one-row select on dual. Oracle forbids
// updating the columns of the ON clause, so conflict keys are only
// inserted. RETURNING needs out binds and is not offered.
func (d DML) Upsert(t core.TableIdent, row map[string]any, conflictKeys []string, returning []string) (core.Statement, error) {
	if len(row) == 0 {
		return core.Statement{}, core.InvalidInput(core.Oracle, "upsert", "row has no columns")
	}
	if len(conflictKeys) == 0 {
		return core.Statement{}, core.InvalidInput(core.Oracle, "upsert", "no conflict keys given")
	}
	if len(returning) > 0 {
		return core.Statement{}, unsupported("upsert", "RETURNING")
	}
	cols := sqlgen.SortedKeys(row)
	args := make([]any, len(cols))
	selects := make([]string, len(cols))
	source := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		args[i] = row[c]
		selects[i] = d.Placeholder(i) + " AS " + quote.Ident(c)
		source[i] = "s." + quote.Ident(c)
		if !slices.Contains(conflictKeys, c) {
			updates = append(updates, "t."+quote.Ident(c)+" = s."+quote.Ident(c))
		}
	}
	on := make([]string, len(conflictKeys))
	for i, k := range conflictKeys {
		if _, ok := row[k]; !ok {
			return core.Statement{}, core.InvalidInput(core.Oracle, "upsert", "conflict key "+k+" is not in the row")
		}
		on[i] = "t." + quote.Ident(k) + " = s." + quote.Ident(k)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s t USING (SELECT %s FROM dual) s ON (%s)",
		quote.Table(t), strings.Join(selects, ", "), strings.Join(on, " AND "))
	if len(updates) > 0 {
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(updates, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)", quote.List(cols), strings.Join(source, ", "))
	return core.Statement{SQL: b.String(), Args: args}, nil
}

// Paginate uses the 12c row limiting clause.
func (DML) Paginate(query string, limit, offset int) string {
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", sqlgen.TrimStatement(query), offset, limit)
}
