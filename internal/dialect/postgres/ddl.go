package postgres

import (
	"encoding/hex"
	"fmt"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

var (
	quote   = sqlgen.DoubleQuote
	literal = sqlgen.LiteralStyle{
		Dialect:    core.PostgreSQL,
		True:       "TRUE",
		False:      "FALSE",
		TimePrefix: "TIMESTAMP ",
		Bytes:      func(b []byte) string { return `'\x` + hex.EncodeToString(b) + `'::bytea` },
	}
	fkStyle = sqlgen.FKStyle{Quoter: quote, OnUpdate: true}
)

// DDL renders PostgreSQL schema statements. Scripts with more than one
// statement are joined with sqlgen.ScriptSeparator.
type DDL struct{}

var (
	_ core.DDLBuilder     = DDL{}
	_ sqlgen.AlterGrammar = alterGrammar{}
)

func (DDL) QuoteIdent(name string) string { return quote.Ident(name) }

func (DDL) QuoteTable(t core.TableIdent) string { return quote.Table(t) }

// CreateTable declares plain unique indexes as UNIQUE constraints; other
// indexes and the comments follow as separate statements.
func (DDL) CreateTable(def core.TableDef, opts core.CreateTableOptions) (string, error) {
	if err := sqlgen.ValidateTable(core.PostgreSQL, def); err != nil {
		return "", err
	}
	var lines []string
	for _, c := range def.Columns {
		col, err := columnDef(c)
		if err != nil {
			return "", err
		}
		lines = append(lines, col)
	}
	if pk := def.PrimaryKey; pk != nil {
		line := "PRIMARY KEY (" + quote.List(pk.Columns) + ")"
		if pk.Name != "" {
			line = "CONSTRAINT " + quote.Ident(pk.Name) + " " + line
		}
		lines = append(lines, line)
	}
	var trailing []string
	for _, idx := range def.Indexes {
		if idx.Unique && idx.Where == "" && idx.Using == "" {
			lines = append(lines, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", quote.Ident(idx.Name), quote.List(idx.Columns)))
			continue
		}
		stmt, err := DDL{}.CreateIndex(def.Ident, idx, opts.IfNotExists)
		if err != nil {
			return "", err
		}
		trailing = append(trailing, stmt)
	}
	for _, chk := range def.Checks {
		lines = append(lines, checkClause(chk))
	}
	for _, fk := range def.ForeignKeys {
		clause, err := fkStyle.Clause(def.Ident, fk)
		if err != nil {
			return "", core.InvalidInput(core.PostgreSQL, "create table", err.Error())
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

	stmts := append([]string{b.String()}, trailing...)
	if def.Comment != "" {
		stmts = append(stmts, tableComment(def.Ident, def.Comment))
	}
	for _, c := range def.Columns {
		if c.Comment != "" {
			stmts = append(stmts, columnComment(def.Ident, c.Name, c.Comment))
		}
	}
	return strings.Join(stmts, sqlgen.ScriptSeparator), nil
}

// columnDef renders one column. Auto increment becomes an identity column
// and enum values a CHECK, since PostgreSQL enums are separate types.
func columnDef(c core.ColumnDef) (string, error) {
	parts := []string{quote.Ident(c.Name)}
	upper := strings.ToUpper(strings.TrimSpace(c.DataType))
	if upper == "ENUM" || upper == "SET" {
		if len(c.EnumValues) == 0 {
			return "", core.InvalidInput(core.PostgreSQL, "column", fmt.Sprintf("column %s: %s needs values", c.Name, upper))
		}
		parts = append(parts, "TEXT")
	} else {
		parts = append(parts, sqlgen.TypeSpec(c))
	}
	if c.ComputedExpr != "" {
		if !c.ComputedStored {
			return "", unsupported("column", "virtual generated column "+c.Name)
		}
		parts = append(parts, "GENERATED ALWAYS AS ("+c.ComputedExpr+") STORED")
	}
	if c.AutoIncrement && c.ComputedExpr == "" {
		parts = append(parts, "GENERATED BY DEFAULT AS IDENTITY")
	}
	switch c.Nullable {
	case core.NotNull:
		parts = append(parts, "NOT NULL")
	case core.Nullable:
		parts = append(parts, "NULL")
	}
	if c.ComputedExpr == "" && !c.AutoIncrement {
		def, ok, err := literal.Default(c)
		if err != nil {
			return "", err
		}
		if ok {
			parts = append(parts, "DEFAULT "+def)
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

func checkClause(chk core.CheckDef) string {
	if chk.Name == "" {
		return "CHECK (" + chk.Expression + ")"
	}
	return "CONSTRAINT " + quote.Ident(chk.Name) + " CHECK (" + chk.Expression + ")"
}

func commentLiteral(comment string) string {
	if comment == "" {
		return "NULL"
	}
	return literal.String(comment)
}

func tableComment(t core.TableIdent, comment string) string {
	return "COMMENT ON TABLE " + quote.Table(t) + " IS " + commentLiteral(comment)
}

func columnComment(t core.TableIdent, column, comment string) string {
	return "COMMENT ON COLUMN " + quote.Table(t) + "." + quote.Ident(column) + " IS " + commentLiteral(comment)
}

func (DDL) AlterTable(t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	return sqlgen.PlanAlter(core.PostgreSQL, alterGrammar{}, t, cmd)
}

type alterGrammar struct{}

func alter(t core.TableIdent, action string) string {
	return "ALTER TABLE " + quote.Table(t) + " " + action
}

func (alterGrammar) AddColumn(t core.TableIdent, c core.ColumnDef) ([]string, error) {
	def, err := columnDef(c)
	if err != nil {
		return nil, err
	}
	out := []string{alter(t, "ADD COLUMN "+def)}
	if c.Comment != "" {
		out = append(out, columnComment(t, c.Name, c.Comment))
	}
	return out, nil
}

// AlterColumn emits a rename, then one ALTER COLUMN per attribute the
// caller set. Unset attributes are left alone.
func (alterGrammar) AlterColumn(t core.TableIdent, ac core.AlterColumn) ([]string, error) {
	var out []string
	if ac.Renamed() {
		out = append(out, alter(t, "RENAME COLUMN "+quote.Ident(ac.OldName)+" TO "+quote.Ident(ac.Name)))
	}
	col := quote.Ident(ac.Target())
	if ac.DataType != "" {
		out = append(out, alter(t, "ALTER COLUMN "+col+" TYPE "+sqlgen.TypeSpec(ac.ColumnDef)))
	}
	switch ac.Nullable {
	case core.NotNull:
		out = append(out, alter(t, "ALTER COLUMN "+col+" SET NOT NULL"))
	case core.Nullable:
		out = append(out, alter(t, "ALTER COLUMN "+col+" DROP NOT NULL"))
	}
	def, ok, err := literal.Default(ac.ColumnDef)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, alter(t, "ALTER COLUMN "+col+" SET DEFAULT "+def))
	}
	if ac.Comment != "" {
		out = append(out, columnComment(t, ac.Target(), ac.Comment))
	}
	return out, nil
}

func (alterGrammar) DropColumn(t core.TableIdent, name string) string {
	return alter(t, "DROP COLUMN "+quote.Ident(name))
}

func (alterGrammar) AddPrimaryKey(t core.TableIdent, pk core.PrimaryKey) string {
	if pk.Name != "" {
		return alter(t, "ADD CONSTRAINT "+quote.Ident(pk.Name)+" PRIMARY KEY ("+quote.List(pk.Columns)+")")
	}
	return alter(t, "ADD PRIMARY KEY ("+quote.List(pk.Columns)+")")
}

// DropPrimaryKey assumes the server's default constraint name.
func (alterGrammar) DropPrimaryKey(t core.TableIdent) string {
	return alter(t, "DROP CONSTRAINT "+quote.Ident(t.Table+"_pkey"))
}

func (alterGrammar) AddIndex(t core.TableIdent, idx core.IndexDef) (string, error) {
	return DDL{}.CreateIndex(t, idx, false)
}

func (alterGrammar) DropIndex(t core.TableIdent, name string) string {
	return DDL{}.DropIndex(t, name, core.DropOptions{MustExist: true})
}

func (alterGrammar) AddCheck(t core.TableIdent, chk core.CheckDef) string {
	return alter(t, "ADD "+checkClause(chk))
}

func (alterGrammar) DropCheck(t core.TableIdent, name string) string {
	return alter(t, "DROP CONSTRAINT "+quote.Ident(name))
}

func (alterGrammar) AddForeignKey(t core.TableIdent, fk core.ForeignKeyDef) (string, error) {
	clause, err := fkStyle.Clause(t, fk)
	if err != nil {
		return "", core.InvalidInput(core.PostgreSQL, "alter table", err.Error())
	}
	return alter(t, "ADD "+clause), nil
}

func (alterGrammar) DropForeignKey(t core.TableIdent, name string) string {
	return alter(t, "DROP CONSTRAINT "+quote.Ident(name))
}

func (alterGrammar) SetComment(t core.TableIdent, comment string) string {
	return tableComment(t, comment)
}

func (DDL) DropTable(t core.TableIdent, opts core.DropOptions) string {
	return "DROP TABLE " + ifExists(opts) + quote.Table(t) + cascade(opts)
}

// TruncateTable also empties tables that reference t.
func (DDL) TruncateTable(t core.TableIdent) string {
	return "TRUNCATE TABLE " + quote.Table(t) + " CASCADE"
}

func (DDL) CreateIndex(t core.TableIdent, idx core.IndexDef, ifNotExists bool) (string, error) {
	if err := sqlgen.ValidateIndex(core.PostgreSQL, idx); err != nil {
		return "", err
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
	b.WriteString(quote.Ident(idx.Name) + " ON " + quote.Table(t))
	if idx.Using != "" {
		b.WriteString(" USING " + strings.ToLower(idx.Using))
	}
	b.WriteString(" (" + quote.List(idx.Columns) + ")")
	if idx.Where != "" {
		b.WriteString(" WHERE " + idx.Where)
	}
	return b.String(), nil
}

// DropIndex qualifies the index with the table's schema; PostgreSQL indexes
// live in the schema, not the table.
func (DDL) DropIndex(t core.TableIdent, name string, opts core.DropOptions) string {
	return "DROP INDEX " + ifExists(opts) + quote.Qualified(t.Schema, name) + cascade(opts)
}

func (DDL) CreateView(schema core.SchemaIdent, view core.ViewDef, orReplace bool) (string, error) {
	if view.Name == "" || strings.TrimSpace(view.Definition) == "" {
		return "", core.InvalidInput(core.PostgreSQL, "create view", "view needs a name and a definition")
	}
	s := "CREATE "
	if orReplace {
		s += "OR REPLACE "
	}
	return s + "VIEW " + quote.Qualified(schema.Schema, view.Name) + " AS " + sqlgen.TrimStatement(view.Definition), nil
}

func (DDL) DropView(schema core.SchemaIdent, name string, opts core.DropOptions) string {
	return "DROP VIEW " + ifExists(opts) + quote.Qualified(schema.Schema, name) + cascade(opts)
}

// ForeignKeyChecks switches session_replication_role, which skips FK
// triggers while set to replica. It needs superuser rights.
func (DDL) ForeignKeyChecks(enabled bool) string {
	if enabled {
		return "SET session_replication_role = 'origin'"
	}
	return "SET session_replication_role = 'replica'"
}

func ifExists(opts core.DropOptions) string {
	if opts.MustExist {
		return ""
	}
	return "IF EXISTS "
}

func cascade(opts core.DropOptions) string {
	if opts.Cascade {
		return " CASCADE"
	}
	return ""
}

func unsupported(op, what string) error {
	return core.NewError(core.ErrUnsupported, core.PostgreSQL, op, what+" is not supported", nil)
}
