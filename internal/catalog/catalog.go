// Package catalog holds the plumbing shared by the dialect introspectors:
// bounded per-table fan-out and order-preserving grouping of catalog rows.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sqlbridge/internal/core"
)

// Concurrency bounds the per-table catalog queries of one snapshot.
const Concurrency = 4

// TableRef is a table listed by a catalog query, before its details are
// loaded.
type TableRef struct {
	Ident   core.TableIdent
	Comment string
}

// LoadFunc loads the full definition of one table.
type LoadFunc func(ctx context.Context, ref TableRef) (*core.TableDef, error)

// LoadTables runs load for every ref with bounded concurrency. The result
// keeps the order of refs. When q is a transaction the loads run one at a
// time, since they share its single connection.
func LoadTables(ctx context.Context, q core.Querier, refs []TableRef, load LoadFunc) ([]core.TableDef, error) {
	out := make([]core.TableDef, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	limit := Concurrency
	if _, ok := q.(core.Tx); ok {
		limit = 1
	}
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			def, err := load(ctx, ref)
			if err != nil {
				return fmt.Errorf("failed to introspect %s: %w", ref.Ident, err)
			}
			out[i] = *def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// NewSnapshot assembles a snapshot stamped with the current time.
func NewSnapshot(d core.Dialect, schemas []string, tables []core.TableDef) *core.SchemaSnapshot {
	s := &core.SchemaSnapshot{
		Dialect:    d,
		CapturedAt: time.Now().UTC(),
		Schemas:    make([]core.SchemaIdent, len(schemas)),
		Tables:     tables,
	}
	for i, name := range schemas {
		s.Schemas[i] = core.SchemaIdent{Schema: name}
	}
	if s.Tables == nil {
		s.Tables = []core.TableDef{}
	}
	return s
}

// Groups collects multi-row catalog entries (index columns, FK columns)
// under their constraint name, in first-seen order.
type Groups[T any] struct {
	order []string
	byKey map[string]*T
}

// Get returns the entry for key, creating it with init on first sight.
func (g *Groups[T]) Get(key string, init func() T) *T {
	if g.byKey == nil {
		g.byKey = make(map[string]*T)
	}
	if v, ok := g.byKey[key]; ok {
		return v
	}
	v := init()
	g.byKey[key] = &v
	g.order = append(g.order, key)
	return &v
}

// Values returns the entries in first-seen order.
func (g *Groups[T]) Values() []T {
	out := make([]T, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, *g.byKey[k])
	}
	return out
}

func (g *Groups[T]) Len() int { return len(g.order) }

// Nullability maps the catalog's YES/NO spelling.
func Nullability(isNullable string) core.Nullability {
	switch strings.ToUpper(strings.TrimSpace(isNullable)) {
	case "YES", "Y", "1", "TRUE":
		return core.Nullable
	case "NO", "N", "0", "FALSE":
		return core.NotNull
	}
	return core.NullUnspecified
}

// Placeholders renders count comma-separated placeholders starting at
// offset, for IN lists.
func Placeholders(count, offset int, placeholder func(int) string) string {
	out := make([]string, count)
	for i := range count {
		out[i] = placeholder(offset + i)
	}
	return strings.Join(out, ", ")
}

// Args converts names to query arguments.
func Args(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// NotFound is the error of a missing table.
func NotFound(d core.Dialect, ident core.TableIdent) error {
	return core.NewError(core.ErrNotFound, d, "introspect", fmt.Sprintf("table %s does not exist", ident), nil)
}

// Strings collects one text column from every row.
func Strings(res *core.QueryResult, column string) []string {
	out := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		out = append(out, r.Str(column))
	}
	return out
}

// Refs builds table references from rows with schema, table and an optional
// comment column.
func Refs(res *core.QueryResult, schemaCol, tableCol, commentCol string) []TableRef {
	out := make([]TableRef, 0, len(res.Rows))
	for _, r := range res.Rows {
		ref := TableRef{Ident: core.TableIdent{Schema: r.Str(schemaCol), Table: r.Str(tableCol)}}
		if commentCol != "" {
			ref.Comment = r.Str(commentCol)
		}
		out = append(out, ref)
	}
	return out
}
