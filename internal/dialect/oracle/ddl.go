package oracle

import (
	"encoding/hex"
	"fmt"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// Identifiers are quoted as given, so they are case-sensitive. Objects
// created without quotes are stored upper case and must be named so.
var (
	quote   = sqlgen.DoubleQuote
	literal = sqlgen.LiteralStyle{
		Dialect:    core.Oracle,
		True:       "1",
		False:      "0",
		TimePrefix: "TIMESTAMP ",
		Bytes:      func(b []byte) string { return "HEXTORAW('" + hex.EncodeToString(b) + "')" },
	}
	fkStyle = sqlgen.FKStyle{Quoter: quote, Action: fkAction}
)

// ORA- codes swallowed by the guarded statements.
const (
	errNameInUse    = -955
	errTableMissing = -942
	errIndexMissing = -1418
	errUserExists   = -1920
	errUserMissing  = -1918
	errRoleMissing  = -1919
)

const defaultVarcharBytes = 4000

var typeNames = map[string]string{
	"BOOLEAN":  "NUMBER(1)",
	"BOOL":     "NUMBER(1)",
	"TINYINT":  "NUMBER(3)",
	"SMALLINT": "NUMBER(5)",
	"INT":      "NUMBER(10)",
	"INTEGER":  "NUMBER(10)",
	"BIGINT":   "NUMBER(19)",
	"DOUBLE":   "BINARY_DOUBLE",
	"REAL":     "BINARY_FLOAT",
	"DATETIME": "TIMESTAMP",
	"TEXT":     "CLOB",
	"JSON":     "CLOB",
	"BYTEA":    "BLOB",
	"UUID":     "RAW(16)",
	"VARCHAR":  "VARCHAR2",
	"DECIMAL":  "NUMBER",
	"NUMERIC":  "NUMBER",
}

// DDL renders Oracle schema statements. Oracle has no IF [NOT] EXISTS
// before 23ai, so guarded statements run in a one-line anonymous block
// that ignores the matching ORA- error.
type DDL struct{}

var (
	_ core.DDLBuilder     = DDL{}
	_ sqlgen.AlterGrammar = alterGrammar{}
)

func (DDL) QuoteIdent(name string) string { return quote.Ident(name) }

func (DDL) QuoteTable(t core.TableIdent) string { return quote.Table(t) }

// ignoring wraps stmt in a PL/SQL block that swallows SQLCODE code.
func ignoring(stmt string, code int) string {
	return fmt.Sprintf("BEGIN EXECUTE IMMEDIATE %s; EXCEPTION WHEN OTHERS THEN IF SQLCODE != %d THEN RAISE; END IF; END;",
		literal.String(stmt), code)
}

func (DDL) CreateTable(def core.TableDef, opts core.CreateTableOptions) (string, error) {
	if err := sqlgen.ValidateTable(core.Oracle, def); err != nil {
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
		lines = append(lines, pkClause(*pk))
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
		clause, err := fkClause(def.Ident, fk, "create table")
		if err != nil {
			return "", err
		}
		lines = append(lines, clause)
	}

	create := "CREATE TABLE " + quote.Table(def.Ident) + " (\n  " + strings.Join(lines, ",\n  ") + "\n)"
	if opts.IfNotExists {
		create = ignoring(create, errNameInUse)
	}
	stmts := append([]string{create}, trailing...)
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

// columnDef renders one column. Oracle computes virtual columns only;
// enums become VARCHAR2 with a CHECK.
func columnDef(c core.ColumnDef) (string, error) {
	parts := []string{quote.Ident(c.Name)}
	upper := strings.ToUpper(strings.TrimSpace(c.DataType))
	if upper == "ENUM" || upper == "SET" {
		if len(c.EnumValues) == 0 {
			return "", core.InvalidInput(core.Oracle, "column", fmt.Sprintf("column %s: %s needs values", c.Name, upper))
		}
		parts = append(parts, "VARCHAR2(255)")
	} else {
		parts = append(parts, typeSpec(c))
	}
	if c.ComputedExpr != "" {
		if c.ComputedStored {
			return "", unsupported("column", "stored generated column "+c.Name)
		}
		return strings.Join(append(parts, "GENERATED ALWAYS AS ("+c.ComputedExpr+") VIRTUAL"), " "), nil
	}
	if c.AutoIncrement {
		parts = append(parts, "GENERATED BY DEFAULT ON NULL AS IDENTITY")
	} else {
		def, ok, err := literal.Default(c)
		if err != nil {
			return "", err
		}
		if ok {
			parts = append(parts, "DEFAULT "+def)
		}
	}
	switch c.Nullable {
	case core.NotNull:
		parts = append(parts, "NOT NULL")
	case core.Nullable:
		parts = append(parts, "NULL")
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

// typeSpec maps portable names and gives VARCHAR2 the length Oracle
// insists on.
func typeSpec(c core.ColumnDef) string {
	if mapped, ok := typeNames[strings.ToUpper(strings.TrimSpace(c.DataType))]; ok {
		if strings.Contains(mapped, "(") {
			return mapped
		}
		c.DataType = mapped
	}
	if strings.EqualFold(c.DataType, "VARCHAR2") && c.Length == 0 {
		c.Length = defaultVarcharBytes
	}
	return sqlgen.TypeSpec(c)
}

// fkAction leaves NO ACTION and RESTRICT unspelled: Oracle checks both
// the same way and only knows ON DELETE CASCADE and SET NULL.
func fkAction(a core.FKAction) (string, error) {
	switch a {
	case core.FKUnspecified, core.FKNoAction, core.FKRestrict:
		return "", nil
	case core.FKCascade:
		return "CASCADE", nil
	case core.FKSetNull:
		return "SET NULL", nil
	}
	return "", fmt.Errorf("ON DELETE %s", actionName(a))
}

// fkClause refuses ON UPDATE actions, which Oracle cannot declare.
func fkClause(t core.TableIdent, fk core.ForeignKeyDef, op string) (string, error) {
	switch fk.OnUpdate {
	case core.FKUnspecified, core.FKNoAction, core.FKRestrict:
	default:
		return "", unsupported(op, "ON UPDATE "+actionName(fk.OnUpdate))
	}
	clause, err := fkStyle.Clause(t, fk)
	if err != nil {
		return "", unsupported(op, err.Error())
	}
	return clause, nil
}

func actionName(a core.FKAction) string {
	return strings.ToUpper(strings.ReplaceAll(string(a), "_", " "))
}

func pkClause(pk core.PrimaryKey) string {
	line := "PRIMARY KEY (" + quote.List(pk.Columns) + ")"
	if pk.Name != "" {
		line = "CONSTRAINT " + quote.Ident(pk.Name) + " " + line
	}
	return line
}

func checkClause(chk core.CheckDef) string {
	if chk.Name == "" {
		return "CHECK (" + chk.Expression + ")"
	}
	return "CONSTRAINT " + quote.Ident(chk.Name) + " CHECK (" + chk.Expression + ")"
}

// Oracle stores the empty string as NULL, so '' clears a comment.
func tableComment(t core.TableIdent, comment string) string {
	return "COMMENT ON TABLE " + quote.Table(t) + " IS " + literal.String(comment)
}

func columnComment(t core.TableIdent, column, comment string) string {
	return "COMMENT ON COLUMN " + quote.Table(t) + "." + quote.Ident(column) + " IS " + literal.String(comment)
}

func (DDL) AlterTable(t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	return sqlgen.PlanAlter(core.Oracle, alterGrammar{}, t, cmd)
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
	out := []string{alter(t, "ADD ("+def+")")}
	if c.Comment != "" {
		out = append(out, columnComment(t, c.Name, c.Comment))
	}
	return out, nil
}

// AlterColumn folds type, default and nullability into one MODIFY, each
// part optional.
func (alterGrammar) AlterColumn(t core.TableIdent, ac core.AlterColumn) ([]string, error) {
	var out []string
	if ac.Renamed() {
		out = append(out, alter(t, "RENAME COLUMN "+quote.Ident(ac.OldName)+" TO "+quote.Ident(ac.Name)))
	}
	parts := []string{quote.Ident(ac.Target())}
	if ac.DataType != "" {
		parts = append(parts, typeSpec(ac.ColumnDef))
	}
	def, ok, err := literal.Default(ac.ColumnDef)
	if err != nil {
		return nil, err
	}
	if ok {
		parts = append(parts, "DEFAULT "+def)
	}
	switch ac.Nullable {
	case core.NotNull:
		parts = append(parts, "NOT NULL")
	case core.Nullable:
		parts = append(parts, "NULL")
	}
	if len(parts) > 1 {
		out = append(out, alter(t, "MODIFY ("+strings.Join(parts, " ")+")"))
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
	return alter(t, "ADD "+pkClause(pk))
}

func (alterGrammar) DropPrimaryKey(t core.TableIdent) string {
	return alter(t, "DROP PRIMARY KEY")
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
	clause, err := fkClause(t, fk, "alter table")
	if err != nil {
		return "", err
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
	stmt := "DROP TABLE " + quote.Table(t)
	if opts.Cascade {
		stmt += " CASCADE CONSTRAINTS"
	}
	if opts.MustExist {
		return stmt
	}
	return ignoring(stmt, errTableMissing)
}

func (DDL) TruncateTable(t core.TableIdent) string {
	return "TRUNCATE TABLE " + quote.Table(t)
}

// CreateIndex knows BITMAP as the only alternative index method. Partial
// indexes do not exist in Oracle.
func (DDL) CreateIndex(t core.TableIdent, idx core.IndexDef, ifNotExists bool) (string, error) {
	if err := sqlgen.ValidateIndex(core.Oracle, idx); err != nil {
		return "", err
	}
	if idx.Where != "" {
		return "", unsupported("create index", "partial index "+idx.Name)
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	switch using := strings.ToUpper(idx.Using); {
	case using == "" || using == "BTREE":
		if idx.Unique {
			b.WriteString("UNIQUE ")
		}
	case using == "BITMAP" && !idx.Unique:
		b.WriteString("BITMAP ")
	default:
		return "", unsupported("create index", "index method "+idx.Using)
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", quote.Qualified(t.Schema, idx.Name), quote.Table(t), quote.List(idx.Columns))
	if ifNotExists {
		return ignoring(b.String(), errNameInUse), nil
	}
	return b.String(), nil
}

// DropIndex qualifies the index with the table's schema, which owns it.
func (DDL) DropIndex(t core.TableIdent, name string, opts core.DropOptions) string {
	stmt := "DROP INDEX " + quote.Qualified(t.Schema, name)
	if opts.MustExist {
		return stmt
	}
	return ignoring(stmt, errIndexMissing)
}

func (DDL) CreateView(schema core.SchemaIdent, view core.ViewDef, orReplace bool) (string, error) {
	if view.Name == "" || strings.TrimSpace(view.Definition) == "" {
		return "", core.InvalidInput(core.Oracle, "create view", "view needs a name and a definition")
	}
	s := "CREATE "
	if orReplace {
		s += "OR REPLACE "
	}
	return s + "VIEW " + quote.Qualified(schema.Schema, view.Name) + " AS " + sqlgen.TrimStatement(view.Definition), nil
}

func (DDL) DropView(schema core.SchemaIdent, name string, opts core.DropOptions) string {
	stmt := "DROP VIEW " + quote.Qualified(schema.Schema, name)
	if opts.Cascade {
		stmt += " CASCADE CONSTRAINTS"
	}
	if opts.MustExist {
		return stmt
	}
	return ignoring(stmt, errTableMissing)
}

// ForeignKeyChecks disables or enables every foreign key the current user
// owns. Oracle has no session switch, and DDL commits the open
// transaction.
func (DDL) ForeignKeyChecks(enabled bool) string {
	from, to := "ENABLED", "DISABLE"
	if enabled {
		from, to = "DISABLED", "ENABLE"
	}
	return "BEGIN FOR c IN (SELECT table_name, constraint_name FROM user_constraints " +
		"WHERE constraint_type = 'R' AND status = '" + from + "') LOOP " +
		`EXECUTE IMMEDIATE 'ALTER TABLE "' || c.table_name || '" ` + to + ` CONSTRAINT "' || c.constraint_name || '"'; ` +
		"END LOOP; END;"
}

func unsupported(op, what string) error {
	return core.NewError(core.ErrUnsupported, core.Oracle, op, what+" is not supported", nil)
}
