package oracle

import (
	"context"
	"regexp"
	"strings"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/core"
)

// Introspector reads the ALL_* dictionary views. A schema is the owning
// user.
type Introspector struct {
	q core.Querier
}

var _ core.Introspector = (*Introspector)(nil)

func NewIntrospector(q core.Querier) *Introspector {
	return &Introspector{q: q}
}

const tablesQuery = `
		SELECT t.owner AS table_schema, t.table_name, c.comments AS table_comment
		FROM all_tables t
		LEFT JOIN all_tab_comments c ON c.owner = t.owner AND c.table_name = t.table_name
		WHERE t.nested = 'NO' AND t.secondary = 'N' AND t.dropped = 'NO'`

func (in *Introspector) Snapshot(ctx context.Context, schemas ...string) (*core.SchemaSnapshot, error) {
	names, err := in.schemas(ctx, schemas)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return catalog.NewSnapshot(core.Oracle, nil, nil), nil
	}
	res, err := in.q.Query(ctx, tablesQuery+`
			AND t.owner IN (`+catalog.Placeholders(len(names), 0, DML{}.Placeholder)+`)
		ORDER BY t.owner, t.table_name`, catalog.Args(names...))
	if err != nil {
		return nil, err
	}
	tables, err := catalog.LoadTables(ctx, in.q, catalog.Refs(res, "table_schema", "table_name", "table_comment"), in.load)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(core.Oracle, names, tables), nil
}

// schemas leaves out the users Oracle maintains itself.
func (in *Introspector) schemas(ctx context.Context, filter []string) ([]string, error) {
	var (
		res *core.QueryResult
		err error
	)
	if len(filter) > 0 {
		res, err = in.q.Query(ctx, `
			SELECT username AS schema_name FROM all_users
			WHERE username IN (`+catalog.Placeholders(len(filter), 0, DML{}.Placeholder)+`)
			ORDER BY username`, catalog.Args(filter...))
	} else {
		res, err = in.q.Query(ctx, `
			SELECT username AS schema_name FROM all_users
			WHERE oracle_maintained = 'N'
			ORDER BY username`, nil)
	}
	if err != nil {
		return nil, err
	}
	return catalog.Strings(res, "schema_name"), nil
}

func (in *Introspector) currentSchema(ctx context.Context, ident core.TableIdent) (core.TableIdent, error) {
	if ident.Schema != "" {
		return ident, nil
	}
	res, err := in.q.Query(ctx, "SELECT SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA') AS schema_name FROM dual", nil)
	if err != nil {
		return ident, err
	}
	if len(res.Rows) > 0 {
		ident.Schema = res.Rows[0].Str("schema_name")
	}
	return ident, nil
}

func (in *Introspector) ref(ctx context.Context, ident core.TableIdent) (catalog.TableRef, error) {
	ident, err := in.currentSchema(ctx, ident)
	if err != nil {
		return catalog.TableRef{}, err
	}
	res, err := in.q.Query(ctx, tablesQuery+`
			AND t.owner = :1 AND t.table_name = :2`, []any{ident.Schema, ident.Table})
	if err != nil {
		return catalog.TableRef{}, err
	}
	refs := catalog.Refs(res, "table_schema", "table_name", "table_comment")
	if len(refs) == 0 {
		return catalog.TableRef{}, catalog.NotFound(core.Oracle, ident)
	}
	return refs[0], nil
}

// Table loads one table. An empty schema means the session's current
// schema.
func (in *Introspector) Table(ctx context.Context, ident core.TableIdent) (*core.TableDef, error) {
	ref, err := in.ref(ctx, ident)
	if err != nil {
		return nil, err
	}
	return in.load(ctx, ref)
}

// ShowCreateTable asks DBMS_METADATA for the DDL.
func (in *Introspector) ShowCreateTable(ctx context.Context, ident core.TableIdent) (string, error) {
	ref, err := in.ref(ctx, ident)
	if err != nil {
		return "", err
	}
	res, err := in.q.Query(ctx, "SELECT DBMS_METADATA.GET_DDL('TABLE', :1, :2) AS ddl FROM dual",
		[]any{ref.Ident.Table, ref.Ident.Schema})
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", catalog.NotFound(core.Oracle, ref.Ident)
	}
	return strings.TrimSpace(res.Rows[0].Str("ddl")), nil
}

func (in *Introspector) load(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
	def := &core.TableDef{Ident: ref.Ident, Comment: ref.Comment}
	args := []any{ref.Ident.Schema, ref.Ident.Table}
	var err error
	if def.Columns, err = in.columns(ctx, args); err != nil {
		return nil, err
	}
	if def.PrimaryKey, err = in.primaryKey(ctx, args); err != nil {
		return nil, err
	}
	if def.Indexes, err = in.indexes(ctx, args); err != nil {
		return nil, err
	}
	if def.ForeignKeys, err = in.foreignKeys(ctx, args); err != nil {
		return nil, err
	}
	if def.Checks, err = in.checks(ctx, args); err != nil {
		return nil, err
	}
	return def, nil
}

func (in *Introspector) columns(ctx context.Context, args []any) ([]core.ColumnDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT c.column_name, c.data_type, c.data_length, c.char_length, c.data_precision, c.data_scale,
			c.nullable, c.data_default, c.identity_column, c.virtual_column, c.column_id,
			cc.comments AS column_comment
		FROM all_tab_cols c
		LEFT JOIN all_col_comments cc
			ON cc.owner = c.owner AND cc.table_name = c.table_name AND cc.column_name = c.column_name
		WHERE c.owner = :1 AND c.table_name = :2 AND c.hidden_column = 'NO'
		ORDER BY c.column_id`, args)
	if err != nil {
		return nil, err
	}
	cols := make([]core.ColumnDef, 0, len(res.Rows))
	for _, r := range res.Rows {
		c := core.ColumnDef{
			Name:     r.Str("column_name"),
			DataType: r.Str("data_type"),
			Nullable: catalog.Nullability(r.Str("nullable")),
			Comment:  r.Str("column_comment"),
		}
		if pos, ok := r.Int("column_id"); ok {
			c.OrdinalPosition = int(pos)
		}
		switch c.DataType {
		case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR":
			n, _ := r.Int("char_length")
			c.Length = int(n)
		case "RAW":
			n, _ := r.Int("data_length")
			c.Length = int(n)
		case "NUMBER":
			if p, ok := r.Int("data_precision"); ok {
				c.Precision = int(p)
				if s, ok := r.Int("data_scale"); ok {
					scale := int(s)
					c.Scale = &scale
				}
			}
		}
		dflt := strings.TrimSpace(r.Str("data_default"))
		switch {
		case r.Str("identity_column") == "YES":
			c.AutoIncrement = true
		case r.Str("virtual_column") == "YES":
			c.ComputedExpr = dflt
		case dflt != "" && !strings.EqualFold(dflt, "NULL"):
			c.DefaultExpr = dflt
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func (in *Introspector) primaryKey(ctx context.Context, args []any) (*core.PrimaryKey, error) {
	res, err := in.q.Query(ctx, `
		SELECT k.constraint_name, kc.column_name
		FROM all_constraints k
		JOIN all_cons_columns kc ON kc.owner = k.owner AND kc.constraint_name = k.constraint_name
		WHERE k.constraint_type = 'P' AND k.owner = :1 AND k.table_name = :2
		ORDER BY kc.position`, args)
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

// indexes leaves out LOB indexes and the one backing the primary key.
func (in *Introspector) indexes(ctx context.Context, args []any) ([]core.IndexDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT i.index_name, ic.column_name, i.uniqueness, i.index_type
		FROM all_indexes i
		JOIN all_ind_columns ic ON ic.index_owner = i.owner AND ic.index_name = i.index_name
		WHERE i.table_owner = :1 AND i.table_name = :2 AND i.index_type <> 'LOB'
			AND NOT EXISTS (
				SELECT 1 FROM all_constraints k
				WHERE k.owner = i.table_owner AND k.index_name = i.index_name AND k.constraint_type = 'P')
		ORDER BY i.index_name, ic.column_position`, args)
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.IndexDef]
	for _, r := range res.Rows {
		idx := groups.Get(r.Str("index_name"), func() core.IndexDef {
			def := core.IndexDef{Name: r.Str("index_name"), Unique: r.Str("uniqueness") == "UNIQUE"}
			if r.Str("index_type") == "BITMAP" {
				def.Using = "BITMAP"
			}
			return def
		})
		idx.Columns = append(idx.Columns, r.Str("column_name"))
	}
	return groups.Values(), nil
}

func (in *Introspector) foreignKeys(ctx context.Context, args []any) ([]core.ForeignKeyDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT c.constraint_name, cc.column_name, r.owner AS ref_schema, r.table_name AS ref_table,
			rc.column_name AS ref_column, c.delete_rule
		FROM all_constraints c
		JOIN all_cons_columns cc ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
		JOIN all_constraints r ON r.owner = c.r_owner AND r.constraint_name = c.r_constraint_name
		JOIN all_cons_columns rc
			ON rc.owner = r.owner AND rc.constraint_name = r.constraint_name AND rc.position = cc.position
		WHERE c.constraint_type = 'R' AND c.owner = :1 AND c.table_name = :2
		ORDER BY c.constraint_name, cc.position`, args)
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
				OnDelete:  core.ParseFKAction(r.Str("delete_rule")),
			}
		})
		fk.Columns = append(fk.Columns, r.Str("column_name"))
		fk.RefColumns = append(fk.RefColumns, r.Str("ref_column"))
	}
	return groups.Values(), nil
}

// notNullCheck matches the check constraints Oracle creates for NOT NULL
// columns.
var notNullCheck = regexp.MustCompile(`^"[^"]+" IS NOT NULL$`)

func (in *Introspector) checks(ctx context.Context, args []any) ([]core.CheckDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT constraint_name, search_condition_vc AS expression
		FROM all_constraints
		WHERE constraint_type = 'C' AND owner = :1 AND table_name = :2
		ORDER BY constraint_name`, args)
	if err != nil {
		return nil, err
	}
	var out []core.CheckDef
	for _, r := range res.Rows {
		expr := strings.TrimSpace(r.Str("expression"))
		if notNullCheck.MatchString(expr) {
			continue
		}
		out = append(out, core.CheckDef{Name: r.Str("constraint_name"), Expression: expr})
	}
	return out, nil
}
