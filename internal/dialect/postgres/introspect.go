package postgres

import (
	"context"
	"strings"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/core"
)

var systemSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}

// Introspector reads pg_catalog, with information_schema for columns.
// Per-table queries address the table as $1::regclass.
type Introspector struct {
	q core.Querier
}

var _ core.Introspector = (*Introspector)(nil)

func NewIntrospector(q core.Querier) *Introspector {
	return &Introspector{q: q}
}

func (in *Introspector) Snapshot(ctx context.Context, schemas ...string) (*core.SchemaSnapshot, error) {
	names, err := in.schemas(ctx, schemas)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return catalog.NewSnapshot(core.PostgreSQL, nil, nil), nil
	}
	res, err := in.q.Query(ctx, `
		SELECT n.nspname AS table_schema, c.relname AS table_name,
			obj_description(c.oid, 'pg_class') AS table_comment
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p') AND NOT c.relispartition
			AND n.nspname IN (`+catalog.Placeholders(len(names), 0, DML{}.Placeholder)+`)
		ORDER BY n.nspname, c.relname`, catalog.Args(names...))
	if err != nil {
		return nil, err
	}
	tables, err := catalog.LoadTables(ctx, in.q, catalog.Refs(res, "table_schema", "table_name", "table_comment"), in.load)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(core.PostgreSQL, names, tables), nil
}

func (in *Introspector) schemas(ctx context.Context, filter []string) ([]string, error) {
	var (
		res *core.QueryResult
		err error
	)
	if len(filter) > 0 {
		res, err = in.q.Query(ctx, `
			SELECT nspname AS schema_name FROM pg_namespace
			WHERE nspname IN (`+catalog.Placeholders(len(filter), 0, DML{}.Placeholder)+`)
			ORDER BY nspname`, catalog.Args(filter...))
	} else {
		res, err = in.q.Query(ctx, `
			SELECT nspname AS schema_name FROM pg_namespace
			WHERE nspname NOT IN (`+catalog.Placeholders(len(systemSchemas), 0, DML{}.Placeholder)+`)
				AND nspname NOT LIKE 'pg\_temp\_%' AND nspname NOT LIKE 'pg\_toast\_temp\_%'
			ORDER BY nspname`, catalog.Args(systemSchemas...))
	}
	if err != nil {
		return nil, err
	}
	return catalog.Strings(res, "schema_name"), nil
}

// Table loads one table. An empty schema means current_schema().
func (in *Introspector) Table(ctx context.Context, ident core.TableIdent) (*core.TableDef, error) {
	if ident.Schema == "" {
		res, err := in.q.Query(ctx, "SELECT current_schema() AS schema_name", nil)
		if err != nil {
			return nil, err
		}
		if len(res.Rows) > 0 {
			ident.Schema = res.Rows[0].Str("schema_name")
		}
	}
	res, err := in.q.Query(ctx, `
		SELECT n.nspname AS table_schema, c.relname AS table_name,
			obj_description(c.oid, 'pg_class') AS table_comment
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p') AND n.nspname = $1 AND c.relname = $2`,
		[]any{ident.Schema, ident.Table})
	if err != nil {
		return nil, err
	}
	refs := catalog.Refs(res, "table_schema", "table_name", "table_comment")
	if len(refs) == 0 {
		return nil, catalog.NotFound(core.PostgreSQL, ident)
	}
	return in.load(ctx, refs[0])
}

// ShowCreateTable renders the introspected table through DDL; the server
// has no CREATE TABLE rendering of its own.
func (in *Introspector) ShowCreateTable(ctx context.Context, ident core.TableIdent) (string, error) {
	def, err := in.Table(ctx, ident)
	if err != nil {
		return "", err
	}
	return DDL{}.CreateTable(*def, core.CreateTableOptions{})
}

func (in *Introspector) load(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
	def := &core.TableDef{Ident: ref.Ident, Comment: ref.Comment}
	regclass := quote.Table(ref.Ident)
	var err error
	if def.Columns, err = in.columns(ctx, ref.Ident, regclass); err != nil {
		return nil, err
	}
	if def.PrimaryKey, err = in.primaryKey(ctx, regclass); err != nil {
		return nil, err
	}
	if def.Indexes, err = in.indexes(ctx, regclass); err != nil {
		return nil, err
	}
	if def.ForeignKeys, err = in.foreignKeys(ctx, regclass); err != nil {
		return nil, err
	}
	if def.Checks, err = in.checks(ctx, regclass); err != nil {
		return nil, err
	}
	return def, nil
}

func (in *Introspector) columns(ctx context.Context, t core.TableIdent, regclass string) ([]core.ColumnDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT c.column_name, c.data_type, c.udt_name, c.character_maximum_length,
			c.numeric_precision, c.numeric_scale, c.is_nullable, c.column_default,
			c.is_identity, c.is_generated, c.generation_expression, c.ordinal_position,
			col_description($3::regclass, c.ordinal_position) AS column_comment
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, []any{t.Schema, t.Table, regclass})
	if err != nil {
		return nil, err
	}
	cols := make([]core.ColumnDef, 0, len(res.Rows))
	for _, r := range res.Rows {
		c := core.ColumnDef{
			Name:     r.Str("column_name"),
			DataType: dataType(r.Str("data_type"), r.Str("udt_name")),
			Nullable: catalog.Nullability(r.Str("is_nullable")),
			Comment:  r.Str("column_comment"),
		}
		if pos, ok := r.Int("ordinal_position"); ok {
			c.OrdinalPosition = int(pos)
		}
		if n, ok := r.Int("character_maximum_length"); ok {
			c.Length = int(n)
		}
		if c.DataType == "NUMERIC" {
			if p, ok := r.Int("numeric_precision"); ok {
				c.Precision = int(p)
			}
			if s, ok := r.Int("numeric_scale"); ok {
				scale := int(s)
				c.Scale = &scale
			}
		}
		def := r.Str("column_default")
		switch {
		case strings.EqualFold(r.Str("is_generated"), "ALWAYS"):
			c.ComputedExpr = r.Str("generation_expression")
			c.ComputedStored = true
		case strings.EqualFold(r.Str("is_identity"), "YES"), strings.HasPrefix(def, "nextval("):
			c.AutoIncrement = true
		case def != "":
			// catalog defaults are SQL expressions such as 'new'::text
			c.DefaultExpr = def
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// dataType prefers the udt name for arrays and user-defined types, where
// data_type only says ARRAY or USER-DEFINED.
func dataType(dataType, udtName string) string {
	switch strings.ToUpper(dataType) {
	case "ARRAY":
		return strings.TrimPrefix(udtName, "_") + "[]"
	case "USER-DEFINED":
		return udtName
	}
	return strings.ToUpper(dataType)
}

func (in *Introspector) primaryKey(ctx context.Context, regclass string) (*core.PrimaryKey, error) {
	res, err := in.q.Query(ctx, `
		SELECT con.conname AS constraint_name, a.attname AS column_name
		FROM pg_constraint con
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		WHERE con.contype = 'p' AND con.conrelid = $1::regclass
		ORDER BY k.ord`, []any{regclass})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return &core.PrimaryKey{
		Name:    res.Rows[0].Str("constraint_name"),
		Columns: catalog.Strings(res, "column_name"),
	}, nil
}

func (in *Introspector) indexes(ctx context.Context, regclass string) ([]core.IndexDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT i.relname AS index_name, a.attname AS column_name, ix.indisunique AS is_unique,
			am.amname AS method, pg_get_expr(ix.indpred, ix.indrelid) AS predicate
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.attnum
		WHERE ix.indrelid = $1::regclass AND NOT ix.indisprimary
		ORDER BY i.relname, k.ord`, []any{regclass})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.IndexDef]
	for _, r := range res.Rows {
		idx := groups.Get(r.Str("index_name"), func() core.IndexDef {
			unique, _ := r.Int("is_unique")
			def := core.IndexDef{Name: r.Str("index_name"), Unique: unique == 1, Where: r.Str("predicate")}
			if m := r.Str("method"); m != "" && m != "btree" {
				def.Using = m
			}
			return def
		})
		idx.Columns = append(idx.Columns, r.Str("column_name"))
	}
	return groups.Values(), nil
}

func (in *Introspector) foreignKeys(ctx context.Context, regclass string) ([]core.ForeignKeyDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT con.conname AS constraint_name, a.attname AS column_name,
			rn.nspname AS ref_schema, rc.relname AS ref_table, ra.attname AS ref_column,
			con.confupdtype::text AS update_rule, con.confdeltype::text AS delete_rule
		FROM pg_constraint con
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_class rc ON rc.oid = con.confrelid
		JOIN pg_namespace rn ON rn.oid = rc.relnamespace
		JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refnum
		WHERE con.contype = 'f' AND con.conrelid = $1::regclass
		ORDER BY con.conname, k.ord`, []any{regclass})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.ForeignKeyDef]
	for _, r := range res.Rows {
		fk := groups.Get(r.Str("constraint_name"), func() core.ForeignKeyDef {
			return core.ForeignKeyDef{
				Name:      r.Str("constraint_name"),
				RefSchema: r.Str("ref_schema"),
				RefTable:  r.Str("ref_table"),
				OnUpdate:  fkAction(r.Str("update_rule")),
				OnDelete:  fkAction(r.Str("delete_rule")),
			}
		})
		fk.Columns = append(fk.Columns, r.Str("column_name"))
		fk.RefColumns = append(fk.RefColumns, r.Str("ref_column"))
	}
	return groups.Values(), nil
}

// fkAction decodes pg_constraint's one-letter action codes.
func fkAction(code string) core.FKAction {
	switch code {
	case "a":
		return core.FKNoAction
	case "r":
		return core.FKRestrict
	case "c":
		return core.FKCascade
	case "n":
		return core.FKSetNull
	case "d":
		return core.FKSetDefault
	}
	return core.FKUnspecified
}

func (in *Introspector) checks(ctx context.Context, regclass string) ([]core.CheckDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT conname AS constraint_name, pg_get_constraintdef(oid) AS definition
		FROM pg_constraint
		WHERE contype = 'c' AND conrelid = $1::regclass
		ORDER BY conname`, []any{regclass})
	if err != nil {
		return nil, err
	}
	var out []core.CheckDef
	for _, r := range res.Rows {
		out = append(out, core.CheckDef{Name: r.Str("constraint_name"), Expression: checkExpression(r.Str("definition"))})
	}
	return out, nil
}

// checkExpression strips "CHECK (...)" and a trailing NOT VALID from
// pg_get_constraintdef output.
func checkExpression(def string) string {
	def = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(def), "NOT VALID"))
	if strings.HasPrefix(def, "CHECK (") && strings.HasSuffix(def, ")") {
		return def[len("CHECK (") : len(def)-1]
	}
	return def
}
