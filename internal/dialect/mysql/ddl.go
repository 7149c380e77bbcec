package mysql

import (
	"fmt"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// Table defaults used when CreateTableOptions leaves them empty.
const (
	DefaultEngine    = "InnoDB"
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_0900_ai_ci"
)

var (
	quote   = sqlgen.Backtick
	literal = sqlgen.LiteralStyle{Dialect: core.MySQL, EscapeBackslash: true, True: "1", False: "0"}
	fkStyle = sqlgen.FKStyle{Quoter: quote, OnUpdate: true}
)

// DDL renders MySQL schema statements.
type DDL struct{}

var (
	_ core.DDLBuilder     = DDL{}
	_ sqlgen.AlterGrammar = alterGrammar{}
)

func (DDL) QuoteIdent(name string) string { return quote.Ident(name) }

func (DDL) QuoteTable(t core.TableIdent) string { return quote.Table(t) }

// CreateTable renders one CREATE TABLE statement; MySQL declares every
// index inline.
func (DDL) CreateTable(def core.TableDef, opts core.CreateTableOptions) (string, error) {
	if err := sqlgen.ValidateTable(core.MySQL, def); err != nil {
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
		lines = append(lines, "PRIMARY KEY ("+quote.List(pk.Columns)+")")
	}
	for _, idx := range def.Indexes {
		if idx.Where != "" {
			return "", unsupported("create table", "partial index "+idx.Name)
		}
		kind := "KEY"
		if idx.Unique {
			kind = "UNIQUE KEY"
		}
		line := fmt.Sprintf("%s %s (%s)", kind, quote.Ident(idx.Name), quote.List(idx.Columns))
		if idx.Using != "" {
			line += " USING " + strings.ToUpper(idx.Using)
		}
		lines = append(lines, line)
	}
	for _, chk := range def.Checks {
		lines = append(lines, checkClause(chk))
	}
	for _, fk := range def.ForeignKeys {
		clause, err := fkStyle.Clause(def.Ident, fk)
		if err != nil {
			return "", core.InvalidInput(core.MySQL, "create table", err.Error())
		}
		lines = append(lines, clause)
	}

	engine := orDefault(opts.Engine, DefaultEngine)
	charset := orDefault(opts.Charset, DefaultCharset)
	collation := orDefault(opts.Collation, DefaultCollation)

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if opts.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(quote.Table(def.Ident))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(lines, ",\n  "))
	fmt.Fprintf(&b, "\n) ENGINE=%s DEFAULT CHARSET=%s COLLATE=%s", engine, charset, collation)
	if def.Comment != "" {
		b.WriteString(" COMMENT=" + literal.String(def.Comment))
	}
	return b.String(), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// columnDef renders "`name` TYPE ..." in MySQL's clause order.
func columnDef(c core.ColumnDef) (string, error) {
	typ, err := columnType(c)
	if err != nil {
		return "", err
	}
	parts := []string{quote.Ident(c.Name), typ}
	if c.Unsigned {
		parts = append(parts, "UNSIGNED")
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
			parts = append(parts, "DEFAULT "+def)
		}
		if c.AutoIncrement {
			parts = append(parts, "AUTO_INCREMENT")
		}
	}
	if c.Comment != "" {
		parts = append(parts, "COMMENT "+literal.String(c.Comment))
	}
	return strings.Join(parts, " "), nil
}

func columnType(c core.ColumnDef) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(c.DataType))
	if upper == "ENUM" || upper == "SET" {
		if len(c.EnumValues) == 0 {
			return "", core.InvalidInput(core.MySQL, "column", fmt.Sprintf("column %s: %s needs values", c.Name, upper))
		}
		vals := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			vals[i] = literal.String(v)
		}
		return upper + "(" + strings.Join(vals, ",") + ")", nil
	}
	return sqlgen.TypeSpec(c), nil
}

func checkClause(chk core.CheckDef) string {
	if chk.Name == "" {
		return "CHECK (" + chk.Expression + ")"
	}
	return "CONSTRAINT " + quote.Ident(chk.Name) + " CHECK (" + chk.Expression + ")"
}

func (DDL) AlterTable(t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	return sqlgen.PlanAlter(core.MySQL, alterGrammar{}, t, cmd)
}

// alterGrammar renders the single ALTER operations PlanAlter sequences.
type alterGrammar struct{}

func alter(t core.TableIdent, action string) string {
	return "ALTER TABLE " + quote.Table(t) + " " + action
}

func (alterGrammar) AddColumn(t core.TableIdent, c core.ColumnDef) ([]string, error) {
	def, err := columnDef(c)
	if err != nil {
		return nil, err
	}
	return []string{alter(t, "ADD COLUMN "+def)}, nil
}

// AlterColumn uses CHANGE for renames and MODIFY otherwise; both restate
// the full definition. A rename without a type is a plain RENAME COLUMN.
func (alterGrammar) AlterColumn(t core.TableIdent, ac core.AlterColumn) ([]string, error) {
	if ac.DataType == "" {
		if ac.Renamed() {
			return []string{alter(t, "RENAME COLUMN "+quote.Ident(ac.OldName)+" TO "+quote.Ident(ac.Name))}, nil
		}
		return nil, core.InvalidInput(core.MySQL, "alter table", fmt.Sprintf("column %s: MODIFY needs a data type", ac.Target()))
	}
	target := ac.ColumnDef
	target.Name = ac.Target()
	def, err := columnDef(target)
	if err != nil {
		return nil, err
	}
	if ac.Renamed() {
		return []string{alter(t, "CHANGE COLUMN "+quote.Ident(ac.OldName)+" "+def)}, nil
	}
	return []string{alter(t, "MODIFY COLUMN "+def)}, nil
}

func (alterGrammar) DropColumn(t core.TableIdent, name string) string {
	return alter(t, "DROP COLUMN "+quote.Ident(name))
}

func (alterGrammar) AddPrimaryKey(t core.TableIdent, pk core.PrimaryKey) string {
	return alter(t, "ADD PRIMARY KEY ("+quote.List(pk.Columns)+")")
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
	return alter(t, "DROP CHECK "+quote.Ident(name))
}

func (alterGrammar) AddForeignKey(t core.TableIdent, fk core.ForeignKeyDef) (string, error) {
	clause, err := fkStyle.Clause(t, fk)
	if err != nil {
		return "", core.InvalidInput(core.MySQL, "alter table", err.Error())
	}
	return alter(t, "ADD "+clause), nil
}

func (alterGrammar) DropForeignKey(t core.TableIdent, name string) string {
	return alter(t, "DROP FOREIGN KEY "+quote.Ident(name))
}

func (alterGrammar) SetComment(t core.TableIdent, comment string) string {
	return alter(t, "COMMENT = "+literal.String(comment))
}

func (DDL) DropTable(t core.TableIdent, opts core.DropOptions) string {
	s := "DROP TABLE " + ifExists(opts) + quote.Table(t)
	if opts.Cascade {
		s += " CASCADE"
	}
	return s
}

func (DDL) TruncateTable(t core.TableIdent) string {
	return "TRUNCATE TABLE " + quote.Table(t)
}

// CreateIndex renders CREATE INDEX. IF NOT EXISTS is MariaDB syntax; MySQL
// servers reject it.
func (DDL) CreateIndex(t core.TableIdent, idx core.IndexDef, ifNotExists bool) (string, error) {
	if err := sqlgen.ValidateIndex(core.MySQL, idx); err != nil {
		return "", err
	}
	if idx.Where != "" {
		return "", unsupported("create index", "partial index "+idx.Name)
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
	fmt.Fprintf(&b, "%s ON %s (%s)", quote.Ident(idx.Name), quote.Table(t), quote.List(idx.Columns))
	if idx.Using != "" {
		b.WriteString(" USING " + strings.ToUpper(idx.Using))
	}
	return b.String(), nil
}

// DropIndex with the default guard emits IF EXISTS, again MariaDB syntax.
func (DDL) DropIndex(t core.TableIdent, name string, opts core.DropOptions) string {
	return "DROP INDEX " + ifExists(opts) + quote.Ident(name) + " ON " + quote.Table(t)
}

func (DDL) CreateView(schema core.SchemaIdent, view core.ViewDef, orReplace bool) (string, error) {
	if view.Name == "" || strings.TrimSpace(view.Definition) == "" {
		return "", core.InvalidInput(core.MySQL, "create view", "view needs a name and a definition")
	}
	s := "CREATE "
	if orReplace {
		s += "OR REPLACE "
	}
	return s + "VIEW " + quote.Qualified(schema.Schema, view.Name) + " AS " + sqlgen.TrimStatement(view.Definition), nil
}

func (DDL) DropView(schema core.SchemaIdent, name string, opts core.DropOptions) string {
	s := "DROP VIEW " + ifExists(opts) + quote.Qualified(schema.Schema, name)
	if opts.Cascade {
		s += " CASCADE"
	}
	return s
}

func (DDL) ForeignKeyChecks(enabled bool) string {
	if enabled {
		return "SET FOREIGN_KEY_CHECKS = 1"
	}
	return "SET FOREIGN_KEY_CHECKS = 0"
}

func ifExists(opts core.DropOptions) string {
	if opts.MustExist {
		return ""
	}
	return "IF EXISTS "
}

func unsupported(op, what string) error {
	return core.NewError(core.ErrUnsupported, core.MySQL, op, what+" is not supported", nil)
}
