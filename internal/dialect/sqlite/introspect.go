package sqlite

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

const mainSchema = "main"

// Introspector reads sqlite_master and the table-valued pragma functions.
// Schemas are attached database names; "main" is the default. Details the
// pragmas do not expose, such as generation expressions and CHECK
// constraints, are parsed from the stored CREATE statement.
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
	var refs []catalog.TableRef
	for _, schema := range names {
		res, err := in.q.Query(ctx, `
			SELECT name FROM `+quote.Ident(schema)+`.sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
			ORDER BY name`, nil)
		if err != nil {
			return nil, err
		}
		for _, table := range catalog.Strings(res, "name") {
			refs = append(refs, catalog.TableRef{Ident: core.TableIdent{Schema: schema, Table: table}})
		}
	}
	tables, err := catalog.LoadTables(ctx, in.q, refs, in.load)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(core.SQLite, names, tables), nil
}

// schemas lists attached databases; temp is a system schema.
func (in *Introspector) schemas(ctx context.Context, filter []string) ([]string, error) {
	res, err := in.q.Query(ctx, "SELECT name FROM pragma_database_list ORDER BY seq", nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range catalog.Strings(res, "name") {
		switch {
		case len(filter) > 0:
			for _, f := range filter {
				if strings.EqualFold(f, name) {
					out = append(out, name)
				}
			}
		case name != "temp":
			out = append(out, name)
		}
	}
	return out, nil
}

func (in *Introspector) Table(ctx context.Context, ident core.TableIdent) (*core.TableDef, error) {
	if ident.Schema == "" {
		ident.Schema = mainSchema
	}
	if _, err := in.createSQL(ctx, ident, "table"); err != nil {
		return nil, err
	}
	return in.load(ctx, catalog.TableRef{Ident: ident})
}

// ShowCreateTable returns the statement SQLite stored for the table.
func (in *Introspector) ShowCreateTable(ctx context.Context, ident core.TableIdent) (string, error) {
	if ident.Schema == "" {
		ident.Schema = mainSchema
	}
	return in.createSQL(ctx, ident, "table")
}

func (in *Introspector) createSQL(ctx context.Context, ident core.TableIdent, kind string) (string, error) {
	res, err := in.q.Query(ctx, `
		SELECT sql FROM `+quote.Ident(ident.Schema)+`.sqlite_master
		WHERE type = ? AND name = ?`, []any{kind, ident.Table})
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", catalog.NotFound(core.SQLite, ident)
	}
	return res.Rows[0].Str("sql"), nil
}

func (in *Introspector) load(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
	create, err := in.createSQL(ctx, ref.Ident, "table")
	if err != nil {
		return nil, err
	}
	def := &core.TableDef{Ident: ref.Ident, Comment: ref.Comment}
	if def.Columns, def.PrimaryKey, err = in.columns(ctx, ref.Ident, create); err != nil {
		return nil, err
	}
	if def.Indexes, err = in.indexes(ctx, ref.Ident); err != nil {
		return nil, err
	}
	if def.ForeignKeys, err = in.foreignKeys(ctx, ref.Ident); err != nil {
		return nil, err
	}
	for _, chk := range tableChecks(create) {
		def.Checks = append(def.Checks, core.CheckDef{Name: chk.name, Expression: chk.expr})
	}
	return def, nil
}

// columns reads pragma_table_xinfo. hidden is 2 for virtual and 3 for
// stored generated columns; pk is the 1-based position in the primary key.
func (in *Introspector) columns(ctx context.Context, t core.TableIdent, create string) ([]core.ColumnDef, *core.PrimaryKey, error) {
	res, err := in.q.Query(ctx, `
		SELECT cid, name, type, "notnull" AS not_null, dflt_value, pk, hidden
		FROM pragma_table_xinfo(?, ?)
		ORDER BY cid`, []any{t.Table, t.Schema})
	if err != nil {
		return nil, nil, err
	}
	defs := columnDefs(create)
	type pkCol struct {
		pos  int64
		name string
	}
	var pk []pkCol
	cols := make([]core.ColumnDef, 0, len(res.Rows))
	for _, r := range res.Rows {
		hidden, _ := r.Int("hidden")
		if hidden == 1 {
			// columns of virtual tables
			continue
		}
		c := sqlgen.ParseType(r.Str("type"))
		c.Name = r.Str("name")
		if cid, ok := r.Int("cid"); ok {
			c.OrdinalPosition = int(cid) + 1
		}
		if notNull, _ := r.Int("not_null"); notNull == 1 {
			c.Nullable = core.NotNull
		} else {
			c.Nullable = core.Nullable
		}
		text := defs[strings.ToLower(c.Name)]
		switch hidden {
		case 2, 3:
			c.ComputedStored = hidden == 3
			c.ComputedExpr = generatedExpr(text)
		default:
			if dflt := r.Lookup("dflt_value"); !dflt.IsNull() {
				c.DefaultExpr = dflt.Text()
			}
		}
		if strings.Contains(strings.ToUpper(text), "AUTOINCREMENT") {
			c.AutoIncrement = true
		}
		if pos, _ := r.Int("pk"); pos > 0 {
			pk = append(pk, pkCol{pos: pos, name: c.Name})
		}
		cols = append(cols, c)
	}
	if len(pk) == 0 {
		return cols, nil, nil
	}
	sort.Slice(pk, func(i, j int) bool { return pk[i].pos < pk[j].pos })
	key := &core.PrimaryKey{}
	for _, p := range pk {
		key.Columns = append(key.Columns, p.name)
	}
	return cols, key, nil
}

// indexes skips the automatic primary key index (origin "pk").
func (in *Introspector) indexes(ctx context.Context, t core.TableIdent) ([]core.IndexDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT il.name AS index_name, il."unique" AS is_unique, il.origin, il.partial,
			ii.name AS column_name, m.sql
		FROM pragma_index_list(?, ?) il
		JOIN pragma_index_info(il.name, ?) ii
		LEFT JOIN `+quote.Ident(t.Schema)+`.sqlite_master m ON m.type = 'index' AND m.name = il.name
		WHERE il.origin <> 'pk'
		ORDER BY il.name, ii.seqno`, []any{t.Table, t.Schema, t.Schema})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.IndexDef]
	for _, r := range res.Rows {
		idx := groups.Get(r.Str("index_name"), func() core.IndexDef {
			unique, _ := r.Int("is_unique")
			def := core.IndexDef{Name: r.Str("index_name"), Unique: unique == 1}
			if partial, _ := r.Int("partial"); partial == 1 {
				def.Where = indexPredicate(r.Str("sql"))
			}
			return def
		})
		idx.Columns = append(idx.Columns, r.Str("column_name"))
	}
	return groups.Values(), nil
}

// foreignKeys names each key the way CreateTable would have, since SQLite
// does not report constraint names.
func (in *Introspector) foreignKeys(ctx context.Context, t core.TableIdent) ([]core.ForeignKeyDef, error) {
	res, err := in.q.Query(ctx, `
		SELECT id, seq, "table" AS ref_table, "from" AS column_name, "to" AS ref_column,
			on_update, on_delete
		FROM pragma_foreign_key_list(?, ?)
		ORDER BY id, seq`, []any{t.Table, t.Schema})
	if err != nil {
		return nil, err
	}
	var groups catalog.Groups[core.ForeignKeyDef]
	for _, r := range res.Rows {
		id, _ := r.Int("id")
		fk := groups.Get(strconv.FormatInt(id, 10), func() core.ForeignKeyDef {
			return core.ForeignKeyDef{
				RefSchema: t.Schema,
				RefTable:  r.Str("ref_table"),
				OnUpdate:  core.ParseFKAction(r.Str("on_update")),
				OnDelete:  core.ParseFKAction(r.Str("on_delete")),
			}
		})
		fk.Columns = append(fk.Columns, r.Str("column_name"))
		fk.RefColumns = append(fk.RefColumns, r.Str("ref_column"))
	}
	out := groups.Values()
	for i := range out {
		out[i].Name = sqlgen.ForeignKeyName(t.Table, out[i].Columns)
	}
	return out, nil
}
