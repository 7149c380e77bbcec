package schema

import (
	"strings"

	"sqlbridge/internal/core"
)

// Table is an introspected table annotated for seeding.
type Table struct {
	Def          core.TableDef
	Columns      []*Column
	ForeignKeys  []*ForeignKey
	Dependencies []string // names of the tables this one references
}

// Name is the qualified table name; it keys Dependencies.
func (t *Table) Name() string { return t.Def.Ident.String() }

func (t *Table) Ident() core.TableIdent { return t.Def.Ident }

// Identity returns the auto-increment column, if any.
func (t *Table) Identity() *Column {
	for _, c := range t.Columns {
		if c.AutoIncrement {
			return c
		}
	}
	return nil
}

// PrimaryKey returns the first primary key column, or nil.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.IsPK {
			return c
		}
	}
	return nil
}

// ForeignKey returns the single-column foreign key on col.
func (t *Table) ForeignKey(col string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Column, col) {
			return fk
		}
	}
	return nil
}

type Column struct {
	core.ColumnDef
	IsPK     bool
	IsUnique bool
	Meaning  string // e.g. "phone", "email"; from comment keywords or name abbreviations
}

// IsNullable treats an unspecified nullability as nullable, as engines do.
func (c *Column) IsNullable() bool { return c.Nullable != core.NotNull }

// Generated reports whether the engine computes the value itself.
func (c *Column) Generated() bool { return c.ComputedExpr != "" }

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// PumpResult is one line of the fill report.
type PumpResult struct {
	TableName string
	Target    int
	Actual    int
	Status    string
	ErrorMsg  string
}
