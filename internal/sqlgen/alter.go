package sqlgen

import (
	"fmt"
	"strings"

	"sqlbridge/internal/core"
)

// AlterGrammar renders the single-operation ALTER statements of a dialect.
// A method returning an empty slice or string means the operation is a
// no-op on that engine.
type AlterGrammar interface {
	AddColumn(t core.TableIdent, c core.ColumnDef) ([]string, error)
	AlterColumn(t core.TableIdent, c core.AlterColumn) ([]string, error)
	DropColumn(t core.TableIdent, name string) string
	AddPrimaryKey(t core.TableIdent, pk core.PrimaryKey) string
	DropPrimaryKey(t core.TableIdent) string
	AddIndex(t core.TableIdent, idx core.IndexDef) (string, error)
	DropIndex(t core.TableIdent, name string) string
	AddCheck(t core.TableIdent, chk core.CheckDef) string
	DropCheck(t core.TableIdent, name string) string
	AddForeignKey(t core.TableIdent, fk core.ForeignKeyDef) (string, error)
	DropForeignKey(t core.TableIdent, name string) string
	SetComment(t core.TableIdent, comment string) string
}

// PlanAlter decomposes cmd into one statement per operation, in this order:
//
//  1. drop foreign keys, checks, indexes, then the primary key
//  2. add columns, then modify or rename columns
//  3. set the primary key, add indexes, checks, then foreign keys
//  4. drop columns
//  5. set or clear the table comment
//
// Constraint drops go first so a constraint can be replaced under the same
// name and so dropped columns are no longer referenced.
func PlanAlter(d core.Dialect, g AlterGrammar, t core.TableIdent, cmd core.AlterTableCommand) ([]string, error) {
	if t.Table == "" {
		return nil, core.InvalidInput(d, "alter table", "table name is empty")
	}
	for i, ac := range cmd.AlterColumns {
		if ac.Name == "" && ac.OldName == "" {
			return nil, core.InvalidInput(d, "alter table", fmt.Sprintf("alter column #%d names neither name nor oldName", i+1))
		}
	}

	var out []string
	add := func(stmts ...string) {
		for _, s := range stmts {
			if s != "" {
				out = append(out, s)
			}
		}
	}

	for _, name := range cmd.DropForeignKeys {
		add(g.DropForeignKey(t, name))
	}
	for _, name := range cmd.DropChecks {
		add(g.DropCheck(t, name))
	}
	for _, name := range cmd.DropIndexes {
		add(g.DropIndex(t, name))
	}
	if cmd.DropPrimaryKey {
		add(g.DropPrimaryKey(t))
	}

	for _, c := range cmd.AddColumns {
		if c.Name == "" || c.DataType == "" {
			return nil, core.InvalidInput(d, "alter table", "added column needs a name and a data type")
		}
		stmts, err := g.AddColumn(t, c)
		if err != nil {
			return nil, err
		}
		add(stmts...)
	}
	for _, ac := range cmd.AlterColumns {
		stmts, err := g.AlterColumn(t, ac)
		if err != nil {
			return nil, err
		}
		add(stmts...)
	}

	if cmd.SetPrimaryKey != nil {
		if len(cmd.SetPrimaryKey.Columns) == 0 {
			return nil, core.InvalidInput(d, "alter table", "primary key has no columns")
		}
		add(g.AddPrimaryKey(t, *cmd.SetPrimaryKey))
	}
	for _, idx := range cmd.AddIndexes {
		if err := ValidateIndex(d, idx); err != nil {
			return nil, err
		}
		s, err := g.AddIndex(t, idx)
		if err != nil {
			return nil, err
		}
		add(s)
	}
	for _, chk := range cmd.AddChecks {
		add(g.AddCheck(t, chk))
	}
	for _, fk := range cmd.AddForeignKeys {
		if err := ValidateForeignKey(d, fk); err != nil {
			return nil, err
		}
		s, err := g.AddForeignKey(t, fk)
		if err != nil {
			return nil, err
		}
		add(s)
	}

	for _, name := range cmd.DropColumns {
		add(g.DropColumn(t, name))
	}
	if cmd.SetComment != nil {
		add(g.SetComment(t, *cmd.SetComment))
	}
	return out, nil
}

// FKStyle renders FOREIGN KEY clauses.
type FKStyle struct {
	Quoter Quoter
	// Action maps referential actions; nil uses FKActionKeyword.
	Action func(core.FKAction) (string, error)
	// OnUpdate is false for engines without ON UPDATE actions.
	OnUpdate bool
}

// Clause renders "CONSTRAINT name FOREIGN KEY (...) REFERENCES ..." for a
// key declared on table t. Unnamed keys get ForeignKeyName; an empty
// RefSchema means the schema of t.
func (s FKStyle) Clause(t core.TableIdent, fk core.ForeignKeyDef) (string, error) {
	name := fk.Name
	if name == "" {
		name = ForeignKeyName(t.Table, fk.Columns)
	}
	refSchema := fk.RefSchema
	if refSchema == "" {
		refSchema = t.Schema
	}
	ref := s.Quoter.Qualified(refSchema, fk.RefTable)
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		s.Quoter.Ident(name), s.Quoter.List(fk.Columns), ref, s.Quoter.List(fk.RefColumns))

	action := s.Action
	if action == nil {
		action = FKActionKeyword
	}
	onDelete, err := action(fk.OnDelete)
	if err != nil {
		return "", err
	}
	if onDelete != "" {
		b.WriteString(" ON DELETE " + onDelete)
	}
	if s.OnUpdate {
		onUpdate, err := action(fk.OnUpdate)
		if err != nil {
			return "", err
		}
		if onUpdate != "" {
			b.WriteString(" ON UPDATE " + onUpdate)
		}
	}
	return b.String(), nil
}
