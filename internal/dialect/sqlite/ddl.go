package sqlite

import (
	"fmt"
	"slices"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

var (
	quote   = sqlgen.DoubleQuote
	literal = sqlgen.LiteralStyle{Dialect: core.SQLite, True: "1", False: "0"}
	fkStyle = sqlgen.FKStyle{Quoter: quote, OnUpdate: true}
)

// DDL renders SQLite schema statements. SQLite keeps no comments, so
// table and column comments are dropped.
type DDL struct{}

var (
	_ core.DDLBuilder     = DDL{}
	_ sqlgen.AlterGrammar = alterGrammar{}
)

func (DDL) QuoteIdent(name string) string { return quote.Ident(name) }

func (DDL) QuoteTable(t core.TableIdent) string { return quote.Table(t) }

// CreateTable emits every index as its own CREATE INDEX so that the names
// survive; inline UNIQUE constraints get sqlite_autoindex names. A single
// auto-increment column must be the whole primary key and is declared
// INTEGER PRIMARY KEY AUTOINCREMENT.
func (DDL) CreateTable(def core.TableDef, opts core.CreateTableOptions) (string, error) {
	if err := sqlgen.ValidateTable(core.SQLite, def); err != nil {
		return "", err
	}
	rowid, err := rowidColumn(def)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, c := range def.Columns {
		col, err := columnDef(c, c.Name == rowid)
		if err != nil {
			return "", err
		}
		lines = append(lines, col)
	}
	if pk := def.PrimaryKey; pk != nil && rowid == "" {
		lines = append(lines, "PRIMARY KEY ("+quote.List(pk.Columns)+")")
	}
	for _, chk := range def.Checks {
		lines = append(lines, checkClause(chk))
	}
	for _, fk := range def.ForeignKeys {
		clause, err := fkClause(def.Ident, fk)
		if err != nil {
			return "", core.InvalidInput(core.SQLite, "create table", err.Error())
		}
		lines = append(lines, clause)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if opts.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(quote.Table(def.Ident))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(lines, ",\n  "))
	b.WriteString("\n)")

	stmts := []string{b.String()}
	for _, idx := range def.Indexes {
		stmt, err := DDL{}.CreateIndex(def.Ident, idx, opts.IfNotExists)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, stmt)
	}
	return strings.Join(stmts, sqlgen.ScriptSeparator), nil
}

// rowidColumn returns the auto-increment column, if any.
func rowidColumn(def core.TableDef) (string, error) {
	var auto []string
	for _, c := range def.Columns {
		if c.AutoIncrement {
			auto = append(auto, c.Name)
		}
	}
	if len(auto) == 0 {
		return "", nil
	}
	pk := def.PrimaryKey
	if len(auto) > 1 || (pk != nil && !slices.Equal(pk.Columns, auto)) {
		return "", unsupported("create table", "auto increment outside a single-column primary key")
	}
	return auto[0], nil
}

func columnDef(c core.ColumnDef, rowid bool) (string, error) {
	if rowid {
		return quote.Ident(c.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
	}
	parts := []string{quote.Ident(c.Name)}
	upper := strings.ToUpper(strings.TrimSpace(c.DataType))
	if upper == "ENUM" || upper == "SET" {
		if len(c.EnumValues) == 0 {
			return "", core.InvalidInput(core.SQLite, "column", fmt.Sprintf("column %s: %s needs values", c.Name, upper))
		}
		parts = append(parts, "TEXT")
	} else {
		parts = append(parts, sqlgen.TypeSpec(c))
	}
	if c.ComputedExpr != "" {
		kind := "VIRTUAL"
		if c.ComputedStored {
			kind = "STORED"
		}
		parts = append(parts, "GENERATED ALWAYS AS ("+c.ComputedExpr+") "+kind)
	}
	switch c.Nullable {
	case core.NotNull:
		parts = append(parts, "NOT NULL")
	case core.Nullable:
		parts = append(parts, "NULL")
	}
	if c.ComputedExpr == "" {
		def, ok, err := literal.Default(c)
		if err != nil {
			return "", err
		}
		if ok {
			parts = append(parts, "DEFAULT "+defaultClause(c, def))
		}
	}
	if len(c.EnumValues) > 0 {
		vals := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			vals[i] = literal.String(v)
		}
		parts = append(parts, "CHECK ("+quote.Ident(c.Name)+" IN ("+strings.Join(vals, ", ")+"))")
	}
	return strings.Join(parts, " "), nil
}

// defaultClause parenthesizes raw expressions; SQLite only accepts
// literals, signed numbers and a few keywords bare.
func defaultClause(c core.ColumnDef, def string) string {
	if c.DefaultExpr == "" || isBareDefault(def) {
		return def
	}
	return "(" + def + ")"
}

func isBareDefault(expr string) bool {
	switch strings.ToUpper(expr) {
	case "NULL", "TRUE", "FALSE", "CURRENT_TIME", "CURRENT_DATE", "CURRENT_TIMESTAMP":
		return true
	}
	if strings.HasPrefix(expr, "(") || strings.HasPrefix(expr, "'") {
		return true
	}
	return isNumber(expr)
}

func isNumber(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	return true
}

// fkClause leaves the referenced table unqualified; SQLite resolves it in
// the database of the referencing table and rejects a schema prefix.
func fkClause(t core.TableIdent, fk core.ForeignKeyDef) (string, error) {
	fk.RefSchema = ""
	return fkStyle.Clause(core.TableIdent{Table: t.Table}, fk)
}

func checkClause(chk core.CheckDef) string {
	if chk.Name == "" {
		return "CHECK (" + chk.Expression + ")"
	}
	return "CONSTRAINT " + quote.Ident(chk.Name) + " CHECK (" + chk.Expression + ")"
}

// AlterTable covers what ALTER TABLE can do in SQLite: add, rename and
// drop columns, and index changes. Everything else needs a table rebuild
// and is rejected.
func (DDL) AlterTable(t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	switch {
	case cmd.SetPrimaryKey != nil, cmd.DropPrimaryKey:
		return nil, unsupported("alter table", "changing the primary key")
	case len(cmd.AddChecks) > 0, len(cmd.DropChecks) > 0:
		return nil, unsupported("alter table", "changing check constraints")
	case len(cmd.AddForeignKeys) > 0, len(cmd.DropForeignKeys) > 0:
		return nil, unsupported("alter table", "changing foreign keys")
	case cmd.SetComment != nil:
		return nil, unsupported("alter table", "table comments")
	}
	return sqlgen.PlanAlter(core.SQLite, alterGrammar{}, t, cmd)
}

type alterGrammar struct{}

func alter(t core.TableIdent, action string) string {
	return "ALTER TABLE " + quote.Table(t) + " " + action
}

func (alterGrammar) AddColumn(t core.TableIdent, c core.ColumnDef) ([]string, error) {
	if c.AutoIncrement {
		return nil, unsupported("alter table", "adding an auto increment column")
	}
	def, err := columnDef(c, false)
	if err != nil {
		return nil, err
	}
	return []string{alter(t, "ADD COLUMN "+def)}, nil
}

// AlterColumn only renames; SQLite cannot change a column definition in
// place.
func (alterGrammar) AlterColumn(t core.TableIdent, ac core.AlterColumn) ([]string, error) {
	if ac.DataType != "" || ac.Nullable != core.NullUnspecified || ac.DefaultExpr != "" || ac.DefaultValue != nil {
		return nil, unsupported("alter table", "modifying column "+ac.Target())
	}
	if !ac.Renamed() {
		return nil, nil
	}
	return []string{alter(t, "RENAME COLUMN "+quote.Ident(ac.OldName)+" TO "+quote.Ident(ac.Name))}, nil
}

func (alterGrammar) DropColumn(t core.TableIdent, name string) string {
	return alter(t, "DROP COLUMN "+quote.Ident(name))
}

func (alterGrammar) AddIndex(t core.TableIdent, idx core.IndexDef) (string, error) {
	return DDL{}.CreateIndex(t, idx, false)
}

func (alterGrammar) DropIndex(t core.TableIdent, name string) string {
	return DDL{}.DropIndex(t, name, core.DropOptions{MustExist: true})
}

// The constraint operations are rejected by AlterTable before planning.
func (alterGrammar) AddPrimaryKey(core.TableIdent, core.PrimaryKey) string             { return "" }
func (alterGrammar) DropPrimaryKey(core.TableIdent) string                             { return "" }
func (alterGrammar) AddCheck(core.TableIdent, core.CheckDef) string                    { return "" }
func (alterGrammar) DropCheck(core.TableIdent, string) string                          { return "" }
func (alterGrammar) AddForeignKey(core.TableIdent, core.ForeignKeyDef) (string, error) { return "", nil }
func (alterGrammar) DropForeignKey(core.TableIdent, string) string                     { return "" }
func (alterGrammar) SetComment(core.TableIdent, string) string                         { return "" }

// DropTable ignores Cascade; SQLite has none.
func (DDL) DropTable(t core.TableIdent, opts core.DropOptions) string {
	return "DROP TABLE " + ifExists(opts) + quote.Table(t)
}

// TruncateTable deletes every row; SQLite has no TRUNCATE.
func (DDL) TruncateTable(t core.TableIdent) string {
	return "DELETE FROM " + quote.Table(t)
}

// CreateIndex qualifies the index name, not the table: SQLite creates the
// index in the table's database.
func (DDL) CreateIndex(t core.TableIdent, idx core.IndexDef, ifNotExists bool) (string, error) {
	if err := sqlgen.ValidateIndex(core.SQLite, idx); err != nil {
		return "", err
	}
	if idx.Using != "" {
		return "", unsupported("create index", "index method "+idx.Using)
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&b, "%s ON %s (%s)", quote.Qualified(t.Schema, idx.Name), quote.Ident(t.Table), quote.List(idx.Columns))
	if idx.Where != "" {
		b.WriteString(" WHERE " + idx.Where)
	}
	return b.String(), nil
}

func (DDL) DropIndex(t core.TableIdent, name string, opts core.DropOptions) string {
	return "DROP INDEX " + ifExists(opts) + quote.Qualified(t.Schema, name)
}

// CreateView has no OR REPLACE form; replacing drops the view first.
func (DDL) CreateView(schema core.SchemaIdent, view core.ViewDef, orReplace bool) (string, error) {
	if view.Name == "" || strings.TrimSpace(view.Definition) == "" {
		return "", core.InvalidInput(core.SQLite, "create view", "view needs a name and a definition")
	}
	name := quote.Qualified(schema.Schema, view.Name)
	create := "CREATE VIEW " + name + " AS " + sqlgen.TrimStatement(view.Definition)
	if !orReplace {
		return create, nil
	}
	return "DROP VIEW IF EXISTS " + name + sqlgen.ScriptSeparator + create, nil
}

func (DDL) DropView(schema core.SchemaIdent, name string, opts core.DropOptions) string {
	return "DROP VIEW " + ifExists(opts) + quote.Qualified(schema.Schema, name)
}

// ForeignKeyChecks has no effect inside a transaction.
func (DDL) ForeignKeyChecks(enabled bool) string {
	if enabled {
		return "PRAGMA foreign_keys = ON"
	}
	return "PRAGMA foreign_keys = OFF"
}

func ifExists(opts core.DropOptions) string {
	if opts.MustExist {
		return ""
	}
	return "IF EXISTS "
}

func unsupported(op, what string) error {
	return core.NewError(core.ErrUnsupported, core.SQLite, op, what+" is not supported", nil)
}
