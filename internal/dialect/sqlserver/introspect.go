package sqlserver

import (
	"context"
	"strings"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/core"
)

var systemSchemas = []string{"sys", "INFORMATION_SCHEMA", "guest"}

// Introspector reads the sys catalog views. Per-table queries address the
// table as OBJECT_ID(@p1) with the bracketed name.
type Introspector struct {
	q core.Querier
}

var _ core.Introspector = (*Introspector)(nil)

func NewIntrospector(q core.Querier) *Introspector {
	return &Introspector{q: q}
}

const tablesQuery = `
		SELECT s.name AS table_schema, t.name AS table_name,
			CAST(ep.value AS NVARCHAR(MAX)) AS table_comment
		FROM sys.tables t
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1 AND ep.major_id = t.object_id AND ep.minor_id = 0 AND ep.name = 'MS_Description'
		WHERE t.is_ms_shipped = 0`

func (in *Introspector) Snapshot(ctx context.Context, schemas ...string) (*core.SchemaSnapshot, error) {
	names, err := in.schemas(ctx, schemas)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return catalog.NewSnapshot(core.SQLServer, nil, nil), nil
	}
	res, err := in.q.Query(ctx, tablesQuery+`
			AND s.name IN (`+catalog.Placeholders(len(names), 0, DML{}.Placeholder)+`)
		ORDER BY s.name, t.name`, catalog.Args(names...))
	if err != nil {
		return nil, err
	}
	tables, err := catalog.LoadTables(ctx, in.q, catalog.Refs(res, "table_schema", "table_name", "table_comment"), in.load)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(core.SQLServer, names, tables), nil
}

// schemas skips the fixed database role schemas, whose ids start at 16384.
func (in *Introspector) schemas(ctx context.Context, filter []string) ([]string, error) {
	var (
		res *core.QueryResult
		err error
	)
	if len(filter) > 0 {
		res, err = in.q.Query(ctx, `
			SELECT name AS schema_name FROM sys.schemas
			WHERE name IN (`+catalog.Placeholders(len(filter), 0, DML{}.Placeholder)+`)
			ORDER BY name`, catalog.Args(filter...))
	} else {
		res, err = in.q.Query(ctx, `
			SELECT name AS schema_name FROM sys.schemas
			WHERE schema_id < 16384
				AND name NOT IN (`+catalog.Placeholders(len(systemSchemas), 0, DML{}.Placeholder)+`)
			ORDER BY name`, catalog.Args(systemSchemas...))
	}
	if err != nil {
		return nil, err
	}
	return catalog.Strings(res, "schema_name"), nil
}

// Table loads one table. An empty schema means the user's default schema.
func (in *Introspector) Table(ctx context.Context, ident core.TableIdent) (*core.TableDef, error) {
	if ident.Schema == "" {
		res, err := in.q.Query(ctx, "SELECT SCHEMA_NAME() AS schema_name", nil)
		if err != nil {
			return nil, err
		}
		if len(res.Rows) > 0 {
			ident.Schema = res.Rows[0].Str("schema_name")
		}
	}
	res, err := in.q.Query(ctx, tablesQuery+`
			AND s.name = @p1 AND t.name = @p2`, []any{ident.Schema, ident.Table})
	if err != nil {
		return nil, err
	}
	refs := catalog.Refs(res, "table_schema", "table_name", "table_comment")
	if len(refs) == 0 {
		return nil, catalog.NotFound(core.SQLServer, ident)
	}
	return in.load(ctx, refs[0])
}

// ShowCreateTable renders the introspected table through DDL; SQL Server
// has no statement that scripts a table.
func (in *Introspector) ShowCreateTable(ctx context.Context, ident core.TableIdent) (string, error) {
	def, err := in.Table(ctx, ident)
	if err != nil {
		return "", err
	}
	return DDL{}.CreateTable(*def, core.CreateTableOptions{})
}

func (in *Introspector) load(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
	def := &core.TableDef{Ident: ref.Ident, Comment: ref.Comment}
	object := quote.Table(ref.Ident)
	var err error
	if def.Columns, err = in.columns(ctx, object); err != nil {
		return nil, err
	}
	if def.PrimaryKey, err = in.primaryKey(ctx, object); err != nil {
		return nil, err
	}
	if def.Indexes, err = in.indexes(ctx, object); err != nil {
		return nil, err
	}
	if def.ForeignKeys, err = in.foreignKeys(ctx, object); err != nil {
		return nil, err
	}
	if def.Checks, err = in.checks(ctx, object); err != nil {
		return nil, err
	}
	return def, nil
}

func (in *Introspector) columns(ctx context.Context, object string) ([]core.ColumnDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT c.name AS column_name, ty.name AS type_name, c.max_length, c.precision, c.scale,
			c.is_nullable, c.is_identity, cc.definition AS computed_definition, cc.is_persisted,
			dc.definition AS default_definition, c.column_id,
			CAST(ep.value AS NVARCHAR(MAX)) AS column_comment
		FROM sys.columns c
		JOIN sys.types ty ON ty.user_type_id = c.user_type_id
		LEFT JOIN sys.computed_columns cc ON cc.object_id = c.object_id AND cc.column_id = c.column_id
		LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1 AND ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
		WHERE c.object_id = OBJECT_ID(@p1)
		ORDER BY c.column_id`, []any{object})
	if err != nil {
		return nil, err
	}
	cols := make([]core.ColumnDef, 0, len(res.Rows))
	for _, r := range res.Rows {
		c := core.ColumnDef{
			Name:     r.Str("column_name"),
			DataType: strings.ToUpper(r.Str("type_name")),
			Comment:  r.Str("column_comment"),
		}
		if pos, ok := r.Int("column_id"); ok {
			c.OrdinalPosition = int(pos)
		}
		if n, _ := r.Int("is_nullable"); n == 1 {
			c.Nullable = core.Nullable
		} else {
			c.Nullable = core.NotNull
		}
		maxLen, _ := r.Int("max_length")
		switch c.DataType {
		case "VARCHAR", "NVARCHAR", "VARBINARY":
			if maxLen == -1 {
				c.DataType += "(MAX)"
				break
			}
			fallthrough
		case "CHAR", "NCHAR", "BINARY":
			c.Length = int(maxLen)
			if strings.HasPrefix(c.DataType, "N") {
				// max_length counts bytes of UTF-16
				c.Length /= 2
			}
		case "DECIMAL", "NUMERIC":
			p, _ := r.Int("precision")
			s, _ := r.Int("scale")
			scale := int(s)
			c.Precision, c.Scale = int(p), &scale
		}
		if id, _ := r.Int("is_identity"); id == 1 {
			c.AutoIncrement = true
		}
		if expr := r.Str("computed_definition"); expr != "" {
			c.ComputedExpr = unwrap(expr)
			persisted, _ := r.Int("is_persisted")
			c.ComputedStored = persisted == 1
		} else if def := r.Str("default_definition"); def != "" {
			c.DefaultExpr = unwrap(def)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// unwrap removes the redundant outer parentheses SQL Server stores around
// defaults, checks and computed expressions: "((0))" becomes "0".
func unwrap(expr string) string {
	expr = strings.TrimSpace(expr)
	for len(expr) >= 2 && expr[0] == '(' && closingParen(expr) == len(expr)-1 {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr
}

// closingParen returns the index of the parenthesis closing expr[0].
func closingParen(expr string) int {
	depth := 0
	inString := false
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (in *Introspector) primaryKey(ctx context.Context, object string) (*core.PrimaryKey, error) {
	res, err := in.q.Query(ctx, `
		SELECT kc.name AS constraint_name, c.name AS column_name
		FROM sys.key_constraints kc
		JOIN sys.index_columns ic ON ic.object_id = kc.parent_object_id AND ic.index_id = kc.unique_index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE kc.type = 'PK' AND kc.parent_object_id = OBJECT_ID(@p1)
		ORDER BY ic.key_ordinal`, []any{object})
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

// indexes leaves out the primary key and included columns. Unique
// constraints show up here as unique indexes.
func (in *Introspector) indexes(ctx context.Context, object string) ([]core.IndexDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT i.name AS index_name, c.name AS column_name, i.is_unique,
			i.type_desc, i.filter_definition
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.object_id = OBJECT_ID(@p1) AND i.is_primary_key = 0 AND i.type > 0
			AND ic.is_included_column = 0
		ORDER BY i.name, ic.key_ordinal`, []any{object})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.IndexDef]
	for _, r := range res.Rows {
		idx := groups.Get(r.Str("index_name"), func() core.IndexDef {
			unique, _ := r.Int("is_unique")
			def := core.IndexDef{Name: r.Str("index_name"), Unique: unique == 1, Where: unwrap(r.Str("filter_definition"))}
			if r.Str("type_desc") == "CLUSTERED" {
				def.Using = "CLUSTERED"
			}
			return def
		})
		idx.Columns = append(idx.Columns, r.Str("column_name"))
	}
	return groups.Values(), nil
}

func (in *Introspector) foreignKeys(ctx context.Context, object string) ([]core.ForeignKeyDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT fk.name AS constraint_name, pc.name AS column_name,
			rs.name AS ref_schema, rt.name AS ref_table, rc.name AS ref_column,
			fk.update_referential_action_desc AS update_rule,
			fk.delete_referential_action_desc AS delete_rule
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
		JOIN sys.schemas rs ON rs.schema_id = rt.schema_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fk.parent_object_id = OBJECT_ID(@p1)
		ORDER BY fk.name, fkc.constraint_column_id`, []any{object})
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
				OnUpdate:  core.ParseFKAction(r.Str("update_rule")),
				OnDelete:  core.ParseFKAction(r.Str("delete_rule")),
			}
		})
		fk.Columns = append(fk.Columns, r.Str("column_name"))
		fk.RefColumns = append(fk.RefColumns, r.Str("ref_column"))
	}
	return groups.Values(), nil
}

func (in *Introspector) checks(ctx context.Context, object string) ([]core.CheckDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT name AS constraint_name, definition
		FROM sys.check_constraints
		WHERE parent_object_id = OBJECT_ID(@p1)
		ORDER BY name`, []any{object})
	if err != nil {
		return nil, err
	}
	var out []core.CheckDef
	for _, r := range res.Rows {
		out = append(out, core.CheckDef{Name: r.Str("constraint_name"), Expression: unwrap(r.Str("definition"))})
	}
	return out, nil
}
