package mysql

import (
	"context"
	"regexp"
	"strings"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/core"
)

var systemSchemas = []string{"mysql", "information_schema", "performance_schema", "sys"}

// Introspector reads information_schema.
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
		return catalog.NewSnapshot(core.MySQL, nil, nil), nil
	}
	res, err := in.q.Query(ctx, `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_COMMENT
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA IN (`+catalog.Placeholders(len(names), 0, DML{}.Placeholder)+`) AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME`, catalog.Args(names...))
	if err != nil {
		return nil, err
	}
	tables, err := catalog.LoadTables(ctx, in.q, catalog.Refs(res, "TABLE_SCHEMA", "TABLE_NAME", "TABLE_COMMENT"), in.load)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(core.MySQL, names, tables), nil
}

func (in *Introspector) schemas(ctx context.Context, filter []string) ([]string, error) {
	var (
		res *core.QueryResult
		err error
	)
	if len(filter) > 0 {
		res, err = in.q.Query(ctx, `
			SELECT SCHEMA_NAME FROM information_schema.SCHEMATA
			WHERE SCHEMA_NAME IN (`+catalog.Placeholders(len(filter), 0, DML{}.Placeholder)+`)
			ORDER BY SCHEMA_NAME`, catalog.Args(filter...))
	} else {
		res, err = in.q.Query(ctx, `
			SELECT SCHEMA_NAME FROM information_schema.SCHEMATA
			WHERE SCHEMA_NAME NOT IN (`+catalog.Placeholders(len(systemSchemas), 0, DML{}.Placeholder)+`)
			ORDER BY SCHEMA_NAME`, catalog.Args(systemSchemas...))
	}
	if err != nil {
		return nil, err
	}
	return catalog.Strings(res, "SCHEMA_NAME"), nil
}

// Table loads one table. An empty schema means the connection's database.
func (in *Introspector) Table(ctx context.Context, ident core.TableIdent) (*core.TableDef, error) {
	if ident.Schema == "" {
		res, err := in.q.Query(ctx, "SELECT DATABASE() AS db", nil)
		if err != nil {
			return nil, err
		}
		if len(res.Rows) > 0 {
			ident.Schema = res.Rows[0].Str("db")
		}
	}
	res, err := in.q.Query(ctx, `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_COMMENT
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND TABLE_TYPE = 'BASE TABLE'`,
		[]any{ident.Schema, ident.Table})
	if err != nil {
		return nil, err
	}
	refs := catalog.Refs(res, "TABLE_SCHEMA", "TABLE_NAME", "TABLE_COMMENT")
	if len(refs) == 0 {
		return nil, catalog.NotFound(core.MySQL, ident)
	}
	return in.load(ctx, refs[0])
}

// ShowCreateTable returns the server's own rendering. The result column is
// "Create Table" on MySQL, with varying case across versions and forks.
func (in *Introspector) ShowCreateTable(ctx context.Context, ident core.TableIdent) (string, error) {
	res, err := in.q.Query(ctx, "SHOW CREATE TABLE "+quote.Table(ident), nil)
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", catalog.NotFound(core.MySQL, ident)
	}
	v := res.Rows[0].Lookup("Create Table", "Create View")
	if v.IsNull() {
		return "", catalog.NotFound(core.MySQL, ident)
	}
	return v.Text(), nil
}

func (in *Introspector) load(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
	def := &core.TableDef{Ident: ref.Ident, Comment: ref.Comment}
	var err error
	if def.Columns, err = in.columns(ctx, ref.Ident); err != nil {
		return nil, err
	}
	if def.PrimaryKey, err = in.primaryKey(ctx, ref.Ident); err != nil {
		return nil, err
	}
	if def.Indexes, err = in.indexes(ctx, ref.Ident); err != nil {
		return nil, err
	}
	if def.ForeignKeys, err = in.foreignKeys(ctx, ref.Ident); err != nil {
		return nil, err
	}
	def.Checks = in.checks(ctx, ref.Ident)
	return def, nil
}

var enumRe = regexp.MustCompile(`'((?:[^']|'')*)'`)

func (in *Introspector) columns(ctx context.Context, t core.TableIdent) ([]core.ColumnDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION, NUMERIC_SCALE, IS_NULLABLE, COLUMN_DEFAULT, EXTRA,
			COLUMN_COMMENT, GENERATION_EXPRESSION, ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, []any{t.Schema, t.Table})
	if err != nil {
		return nil, err
	}
	cols := make([]core.ColumnDef, 0, len(res.Rows))
	for _, r := range res.Rows {
		dataType := strings.ToUpper(r.Str("DATA_TYPE"))
		columnType := strings.ToLower(r.Str("COLUMN_TYPE"))
		extra := strings.ToLower(r.Str("EXTRA"))

		c := core.ColumnDef{
			Name:          r.Str("COLUMN_NAME"),
			DataType:      dataType,
			Nullable:      catalog.Nullability(r.Str("IS_NULLABLE")),
			Unsigned:      strings.Contains(columnType, "unsigned"),
			AutoIncrement: strings.Contains(extra, "auto_increment"),
			Comment:       r.Str("COLUMN_COMMENT"),
		}
		if pos, ok := r.Int("ORDINAL_POSITION"); ok {
			c.OrdinalPosition = int(pos)
		}
		switch dataType {
		case "CHAR", "VARCHAR", "BINARY", "VARBINARY":
			if n, ok := r.Int("CHARACTER_MAXIMUM_LENGTH"); ok {
				c.Length = int(n)
			}
		case "DECIMAL", "NUMERIC":
			if p, ok := r.Int("NUMERIC_PRECISION"); ok {
				c.Precision = int(p)
			}
			if s, ok := r.Int("NUMERIC_SCALE"); ok {
				scale := int(s)
				c.Scale = &scale
			}
		case "ENUM", "SET":
			for _, m := range enumRe.FindAllStringSubmatch(r.Str("COLUMN_TYPE"), -1) {
				c.EnumValues = append(c.EnumValues, strings.ReplaceAll(m[1], "''", "'"))
			}
		}
		if expr := r.Str("GENERATION_EXPRESSION"); expr != "" {
			c.ComputedExpr = expr
			c.ComputedStored = strings.Contains(extra, "stored generated")
		} else if def := r.Lookup("COLUMN_DEFAULT"); !def.IsNull() {
			// MySQL 8 flags expression defaults; anything else is a literal
			if strings.Contains(extra, "default_generated") {
				c.DefaultExpr = def.Text()
			} else {
				v := core.StringValue(def.Text())
				c.DefaultValue = &v
			}
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func (in *Introspector) primaryKey(ctx context.Context, t core.TableIdent) (*core.PrimaryKey, error) {
	res, err := in.q.Query(ctx, `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION`, []any{t.Schema, t.Table})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return &core.PrimaryKey{Columns: catalog.Strings(res, "COLUMN_NAME")}, nil
}

func (in *Introspector) indexes(ctx context.Context, t core.TableIdent) ([]core.IndexDef, error) {
	res, err := in.q.Query(ctx, "SHOW INDEX FROM "+quote.Table(t), nil)
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.IndexDef]
	for _, r := range res.Rows {
		name := r.Str("Key_name")
		if name == "PRIMARY" {
			continue
		}
		idx := groups.Get(name, func() core.IndexDef {
			nonUnique, _ := r.Int("Non_unique")
			def := core.IndexDef{Name: name, Unique: nonUnique == 0}
			if typ := strings.ToUpper(r.Str("Index_type")); typ != "" && typ != "BTREE" {
				def.Using = typ
			}
			return def
		})
		idx.Columns = append(idx.Columns, r.Str("Column_name"))
	}
	return groups.Values(), nil
}

func (in *Introspector) foreignKeys(ctx context.Context, t core.TableIdent) ([]core.ForeignKeyDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT k.CONSTRAINT_NAME, k.COLUMN_NAME, k.REFERENCED_TABLE_SCHEMA,
			k.REFERENCED_TABLE_NAME, k.REFERENCED_COLUMN_NAME, r.UPDATE_RULE, r.DELETE_RULE
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.REFERENTIAL_CONSTRAINTS r
			ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION`, []any{t.Schema, t.Table})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.ForeignKeyDef]
	for _, r := range res.Rows {
		fk := groups.Get(r.Str("CONSTRAINT_NAME"), func() core.ForeignKeyDef {
			return core.ForeignKeyDef{
				Name:      r.Str("CONSTRAINT_NAME"),
				RefSchema: r.Str("REFERENCED_TABLE_SCHEMA"),
				RefTable:  r.Str("REFERENCED_TABLE_NAME"),
				OnUpdate:  core.ParseFKAction(r.Str("UPDATE_RULE")),
				OnDelete:  core.ParseFKAction(r.Str("DELETE_RULE")),
			}
		})
		fk.Columns = append(fk.Columns, r.Str("COLUMN_NAME"))
		fk.RefColumns = append(fk.RefColumns, r.Str("REFERENCED_COLUMN_NAME"))
	}
	return groups.Values(), nil
}

// checks is best effort: CHECK_CONSTRAINTS only exists from 8.0.16 and
// MariaDB 10.2, so a failing query yields no checks.
func (in *Introspector) checks(ctx context.Context, t core.TableIdent) []core.CheckDef {
	res, err := in.q.Query(ctx, `
		SELECT tc.CONSTRAINT_NAME, cc.CHECK_CLAUSE
		FROM information_schema.TABLE_CONSTRAINTS tc
		JOIN information_schema.CHECK_CONSTRAINTS cc
			ON cc.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND cc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ? AND tc.CONSTRAINT_TYPE = 'CHECK'
		ORDER BY tc.CONSTRAINT_NAME`, []any{t.Schema, t.Table})
	if err != nil {
		return nil
	}
	var out []core.CheckDef
	for _, r := range res.Rows {
		out = append(out, core.CheckDef{Name: r.Str("CONSTRAINT_NAME"), Expression: r.Str("CHECK_CLAUSE")})
	}
	return out
}
