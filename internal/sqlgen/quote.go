package sqlgen

import (
	"strings"

	"sqlbridge/internal/core"
)

// Quoter quotes identifiers for one dialect. Embedded closing quote
// characters are doubled, never stripped.
type Quoter struct {
	Open, Close string
}

var (
	Backtick    = Quoter{Open: "`", Close: "`"}
	DoubleQuote = Quoter{Open: `"`, Close: `"`}
	Bracket     = Quoter{Open: "[", Close: "]"}
)

func (q Quoter) Ident(name string) string {
	return q.Open + strings.ReplaceAll(name, q.Close, q.Close+q.Close) + q.Close
}

// Table quotes a possibly schema-qualified table.
func (q Quoter) Table(t core.TableIdent) string {
	if t.Schema == "" {
		return q.Ident(t.Table)
	}
	return q.Ident(t.Schema) + "." + q.Ident(t.Table)
}

// Qualified quotes name inside schema, or bare when schema is empty.
func (q Quoter) Qualified(schema, name string) string {
	return q.Table(core.TableIdent{Schema: schema, Table: name})
}

// List quotes names and joins them with ", ".
func (q Quoter) List(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = q.Ident(n)
	}
	return strings.Join(quoted, ", ")
}
