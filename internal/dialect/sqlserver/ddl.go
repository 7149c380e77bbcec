package sqlserver

import (
	"encoding/hex"
	"fmt"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

var (
	quote   = sqlgen.Bracket
	literal = sqlgen.LiteralStyle{
		Dialect: core.SQLServer,
		True:    "1",
		False:   "0",
		Bytes:   func(b []byte) string { return "0x" + hex.EncodeToString(b) },
	}
	fkStyle = sqlgen.FKStyle{Quoter: quote, Action: fkAction, OnUpdate: true}
)

// typeNames maps portable type names onto T-SQL. TIMESTAMP in T-SQL is a
// row version, not a point in time.
var typeNames = map[string]string{
	"BOOLEAN":   "BIT",
	"BOOL":      "BIT",
	"TEXT":      "NVARCHAR(MAX)",
	"JSON":      "NVARCHAR(MAX)",
	"CLOB":      "NVARCHAR(MAX)",
	"BLOB":      "VARBINARY(MAX)",
	"BYTEA":     "VARBINARY(MAX)",
	"DOUBLE":    "FLOAT",
	"TIMESTAMP": "DATETIME2",
	"UUID":      "UNIQUEIDENTIFIER",
}

// DDL renders T-SQL schema statements. Guards use OBJECT_ID and sys
// catalog probes, since IF EXISTS clauses need SQL Server 2016.
type DDL struct{}

var (
	_ core.DDLBuilder     = DDL{}
	_ sqlgen.AlterGrammar = alterGrammar{}
)

func (DDL) QuoteIdent(name string) string { return quote.Ident(name) }

func (DDL) QuoteTable(t core.TableIdent) string { return quote.Table(t) }

// CreateTable names the primary key PK_<table> so that DropPrimaryKey can
// find it. Plain unique indexes become UNIQUE constraints; the rest follow
// as CREATE INDEX statements, then the MS_Description comments.
func (DDL) CreateTable(def core.TableDef, opts core.CreateTableOptions) (string, error) {
	if err := sqlgen.ValidateTable(core.SQLServer, def); err != nil {
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
		lines = append(lines, "CONSTRAINT "+quote.Ident(pkName(def.Ident, pk.Name))+" PRIMARY KEY ("+quote.List(pk.Columns)+")")
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
			return "", core.InvalidInput(core.SQLServer, "create table", err.Error())
		}
		lines = append(lines, clause)
	}

	var b strings.Builder
	if opts.IfNotExists {
		b.WriteString("IF OBJECT_ID(" + objectName(def.Ident) + ", N'U') IS NULL ")
	}
	b.WriteString("CREATE TABLE ")
	b.WriteString(quote.Table(def.Ident))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(lines, ",\n  "))
	b.WriteString("\n)")

	stmts := append([]string{b.String()}, trailing...)
	if def.Comment != "" {
		stmts = append(stmts, commentStmt(def.Ident, "", def.Comment))
	}
	for _, c := range def.Columns {
		if c.Comment != "" {
			stmts = append(stmts, commentStmt(def.Ident, c.Name, c.Comment))
		}
	}
	return strings.Join(stmts, sqlgen.ScriptSeparator), nil
}

// columnDef renders one column. Computed columns carry no type in T-SQL.
func columnDef(c core.ColumnDef) (string, error) {
	name := quote.Ident(c.Name)
	if c.ComputedExpr != "" {
		s := name + " AS (" + c.ComputedExpr + ")"
		if c.ComputedStored {
			s += " PERSISTED"
		}
		return s, nil
	}
	parts := []string{name}
	upper := strings.ToUpper(strings.TrimSpace(c.DataType))
	if upper == "ENUM" || upper == "SET" {
		if len(c.EnumValues) == 0 {
			return "", core.InvalidInput(core.SQLServer, "column", fmt.Sprintf("column %s: %s needs values", c.Name, upper))
		}
		parts = append(parts, "NVARCHAR(255)")
	} else {
		parts = append(parts, typeSpec(c))
	}
	if c.AutoIncrement {
		parts = append(parts, "IDENTITY(1,1)")
	}
	switch c.Nullable {
	case core.NotNull:
		parts = append(parts, "NOT NULL")
	case core.Nullable:
		parts = append(parts, "NULL")
	}
	if !c.AutoIncrement {
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
			vals[i] = nstring(v)
		}
		parts = append(parts, "CHECK ("+name+" IN ("+strings.Join(vals, ", ")+"))")
	}
	return strings.Join(parts, " "), nil
}

func typeSpec(c core.ColumnDef) string {
	if mapped, ok := typeNames[strings.ToUpper(strings.TrimSpace(c.DataType))]; ok {
		return mapped
	}
	return sqlgen.TypeSpec(c)
}

// fkAction spells RESTRICT as NO ACTION, which T-SQL checks the same way.
func fkAction(a core.FKAction) (string, error) {
	if a == core.FKRestrict {
		return "NO ACTION", nil
	}
	return sqlgen.FKActionKeyword(a)
}

func pkName(t core.TableIdent, name string) string {
	if name != "" {
		return name
	}
	return "PK_" + t.Table
}

func checkClause(chk core.CheckDef) string {
	if chk.Name == "" {
		return "CHECK (" + chk.Expression + ")"
	}
	return "CONSTRAINT " + quote.Ident(chk.Name) + " CHECK (" + chk.Expression + ")"
}

// nstring renders a Unicode string literal.
func nstring(s string) string { return "N" + literal.String(s) }

// objectName is the quoted name as OBJECT_ID expects it.
func objectName(t core.TableIdent) string { return nstring(quote.Table(t)) }

func schemaOf(t core.TableIdent) string {
	if t.Schema == "" {
		return "dbo"
	}
	return t.Schema
}

// commentStmt sets, replaces or (for an empty comment) drops the
// MS_Description property of a table or one of its columns.
func commentStmt(t core.TableIdent, column, comment string) string {
	target := "@level0type = N'SCHEMA', @level0name = " + nstring(schemaOf(t)) +
		", @level1type = N'TABLE', @level1name = " + nstring(t.Table)
	minor := "0"
	if column != "" {
		target += ", @level2type = N'COLUMN', @level2name = " + nstring(column)
		minor = "COLUMNPROPERTY(OBJECT_ID(" + objectName(t) + "), " + nstring(column) + ", 'ColumnId')"
	}
	exists := "EXISTS (SELECT 1 FROM sys.extended_properties WHERE class = 1 AND name = N'MS_Description'" +
		" AND major_id = OBJECT_ID(" + objectName(t) + ") AND minor_id = " + minor + ")"
	if comment == "" {
		return "IF " + exists + " EXEC sp_dropextendedproperty @name = N'MS_Description', " + target
	}
	value := "@name = N'MS_Description', @value = " + nstring(comment) + ", " + target
	return "IF " + exists + " EXEC sp_updateextendedproperty " + value + " ELSE EXEC sp_addextendedproperty " + value
}

func (DDL) AlterTable(t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	return sqlgen.PlanAlter(core.SQLServer, alterGrammar{}, t, cmd)
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
	out := []string{alter(t, "ADD "+def)}
	if c.Comment != "" {
		out = append(out, commentStmt(t, c.Name, c.Comment))
	}
	return out, nil
}

// AlterColumn renames through sp_rename. ALTER COLUMN restates the type,
// so nullability changes need DataType too. A new default is added as an
// unnamed constraint and fails if the column already has one.
func (alterGrammar) AlterColumn(t core.TableIdent, ac core.AlterColumn) ([]string, error) {
	var out []string
	if ac.Renamed() {
		obj := quote.Table(t) + "." + quote.Ident(ac.OldName)
		out = append(out, "EXEC sp_rename "+nstring(obj)+", "+nstring(ac.Name)+", N'COLUMN'")
	}
	col := quote.Ident(ac.Target())
	switch {
	case ac.DataType != "":
		s := "ALTER COLUMN " + col + " " + typeSpec(ac.ColumnDef)
		switch ac.Nullable {
		case core.NotNull:
			s += " NOT NULL"
		case core.Nullable:
			s += " NULL"
		}
		out = append(out, alter(t, s))
	case ac.Nullable != core.NullUnspecified:
		return nil, core.InvalidInput(core.SQLServer, "alter table", "changing nullability of "+ac.Target()+" needs its data type")
	}
	def, ok, err := literal.Default(ac.ColumnDef)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, alter(t, "ADD DEFAULT "+def+" FOR "+col))
	}
	if ac.Comment != "" {
		out = append(out, commentStmt(t, ac.Target(), ac.Comment))
	}
	return out, nil
}

func (alterGrammar) DropColumn(t core.TableIdent, name string) string {
	return alter(t, "DROP COLUMN "+quote.Ident(name))
}

func (alterGrammar) AddPrimaryKey(t core.TableIdent, pk core.PrimaryKey) string {
	return alter(t, "ADD CONSTRAINT "+quote.Ident(pkName(t, pk.Name))+" PRIMARY KEY ("+quote.List(pk.Columns)+")")
}

func (alterGrammar) DropPrimaryKey(t core.TableIdent) string {
	return alter(t, "DROP CONSTRAINT "+quote.Ident(pkName(t, "")))
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
		return "", core.InvalidInput(core.SQLServer, "alter table", err.Error())
	}
	return alter(t, "ADD "+clause), nil
}

func (alterGrammar) DropForeignKey(t core.TableIdent, name string) string {
	return alter(t, "DROP CONSTRAINT "+quote.Ident(name))
}

func (alterGrammar) SetComment(t core.TableIdent, comment string) string {
	return commentStmt(t, "", comment)
}

// DropTable ignores Cascade; referencing keys must be dropped first.
func (DDL) DropTable(t core.TableIdent, opts core.DropOptions) string {
	stmt := "DROP TABLE " + quote.Table(t)
	if opts.MustExist {
		return stmt
	}
	return "IF OBJECT_ID(" + objectName(t) + ", N'U') IS NOT NULL " + stmt
}

// TruncateTable deletes and reseeds the identity. TRUNCATE TABLE is
// refused for any table a foreign key references, even a disabled one.
func (DDL) TruncateTable(t core.TableIdent) string {
	return "DELETE FROM " + quote.Table(t) + sqlgen.ScriptSeparator +
		"IF OBJECTPROPERTY(OBJECT_ID(" + objectName(t) + "), 'TableHasIdentity') = 1 DBCC CHECKIDENT (" + objectName(t) + ", RESEED, 0)"
}

// CreateIndex accepts CLUSTERED and NONCLUSTERED as the index method.
func (DDL) CreateIndex(t core.TableIdent, idx core.IndexDef, ifNotExists bool) (string, error) {
	if err := sqlgen.ValidateIndex(core.SQLServer, idx); err != nil {
		return "", err
	}
	var b strings.Builder
	if ifNotExists {
		b.WriteString("IF NOT " + indexExists(t, idx.Name) + " ")
	}
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	switch using := strings.ToUpper(idx.Using); using {
	case "":
	case "CLUSTERED", "NONCLUSTERED":
		b.WriteString(using + " ")
	default:
		return "", core.NewError(core.ErrUnsupported, core.SQLServer, "create index", "index method "+idx.Using+" is not supported", nil)
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", quote.Ident(idx.Name), quote.Table(t), quote.List(idx.Columns))
	if idx.Where != "" {
		b.WriteString(" WHERE " + idx.Where)
	}
	return b.String(), nil
}

func indexExists(t core.TableIdent, name string) string {
	return "EXISTS (SELECT 1 FROM sys.indexes WHERE name = " + nstring(name) + " AND object_id = OBJECT_ID(" + objectName(t) + "))"
}

func (DDL) DropIndex(t core.TableIdent, name string, opts core.DropOptions) string {
	stmt := "DROP INDEX " + quote.Ident(name) + " ON " + quote.Table(t)
	if opts.MustExist {
		return stmt
	}
	return "IF " + indexExists(t, name) + " " + stmt
}

// CreateView must start its own batch, so replacing drops the view in a
// preceding statement.
func (DDL) CreateView(schema core.SchemaIdent, view core.ViewDef, orReplace bool) (string, error) {
	if view.Name == "" || strings.TrimSpace(view.Definition) == "" {
		return "", core.InvalidInput(core.SQLServer, "create view", "view needs a name and a definition")
	}
	create := "CREATE VIEW " + quote.Qualified(schema.Schema, view.Name) + " AS " + sqlgen.TrimStatement(view.Definition)
	if !orReplace {
		return create, nil
	}
	return DDL{}.DropView(schema, view.Name, core.DropOptions{}) + sqlgen.ScriptSeparator + create, nil
}

func (DDL) DropView(schema core.SchemaIdent, name string, opts core.DropOptions) string {
	qualified := quote.Qualified(schema.Schema, name)
	stmt := "DROP VIEW " + qualified
	if opts.MustExist {
		return stmt
	}
	return "IF OBJECT_ID(" + nstring(qualified) + ", N'V') IS NOT NULL " + stmt
}

// ForeignKeyChecks has no session switch in T-SQL; it toggles the
// constraints of every user table, revalidating existing rows on enable.
func (DDL) ForeignKeyChecks(enabled bool) string {
	action := "NOCHECK CONSTRAINT ALL"
	if enabled {
		action = "WITH CHECK CHECK CONSTRAINT ALL"
	}
	return "DECLARE @sql NVARCHAR(MAX) = N''; " +
		"SELECT @sql += N'ALTER TABLE ' + QUOTENAME(s.name) + N'.' + QUOTENAME(t.name) + N' " + action + "; ' " +
		"FROM sys.tables t JOIN sys.schemas s ON s.schema_id = t.schema_id WHERE t.is_ms_shipped = 0; " +
		"EXEC sp_executesql @sql"
}

// IdentityInsert allows explicit values in the identity column of t for
// the rest of the session, or stops allowing them.
func (DDL) IdentityInsert(t core.TableIdent, on bool) string {
	if on {
		return "SET IDENTITY_INSERT " + quote.Table(t) + " ON"
	}
	return "SET IDENTITY_INSERT " + quote.Table(t) + " OFF"
}
