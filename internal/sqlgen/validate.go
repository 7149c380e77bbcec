package sqlgen

import (
	"fmt"

	"sqlbridge/internal/core"
)

// ValidateTable rejects table definitions no dialect can render.
func ValidateTable(d core.Dialect, def core.TableDef) error {
	op := "create table"
	if def.Ident.Table == "" {
		return core.InvalidInput(d, op, "table name is empty")
	}
	if len(def.Columns) == 0 {
		return core.InvalidInput(d, op, fmt.Sprintf("table %s has no columns", def.Ident))
	}
	seen := make(map[string]bool, len(def.Columns))
	for i, c := range def.Columns {
		if c.Name == "" {
			return core.InvalidInput(d, op, fmt.Sprintf("column %d has no name", i+1))
		}
		if c.DataType == "" {
			return core.InvalidInput(d, op, fmt.Sprintf("column %s has no data type", c.Name))
		}
		if seen[c.Name] {
			return core.InvalidInput(d, op, fmt.Sprintf("duplicate column %s", c.Name))
		}
		seen[c.Name] = true
	}
	if def.PrimaryKey != nil {
		if len(def.PrimaryKey.Columns) == 0 {
			return core.InvalidInput(d, op, "primary key has no columns")
		}
		for _, col := range def.PrimaryKey.Columns {
			if !seen[col] {
				return core.InvalidInput(d, op, fmt.Sprintf("primary key column %s is not defined", col))
			}
		}
	}
	for _, idx := range def.Indexes {
		if err := ValidateIndex(d, idx); err != nil {
			return err
		}
	}
	for _, fk := range def.ForeignKeys {
		if err := ValidateForeignKey(d, fk); err != nil {
			return err
		}
	}
	return nil
}

func ValidateIndex(d core.Dialect, idx core.IndexDef) error {
	if idx.Name == "" {
		return core.InvalidInput(d, "index", "index name is empty")
	}
	if len(idx.Columns) == 0 {
		return core.InvalidInput(d, "index", fmt.Sprintf("index %s has no columns", idx.Name))
	}
	return nil
}

func ValidateForeignKey(d core.Dialect, fk core.ForeignKeyDef) error {
	if len(fk.Columns) == 0 || fk.RefTable == "" {
		return core.InvalidInput(d, "foreign key", "foreign key needs columns and a referenced table")
	}
	if len(fk.Columns) != len(fk.RefColumns) {
		return core.InvalidInput(d, "foreign key", fmt.Sprintf("foreign key on (%v) references %d columns", fk.Columns, len(fk.RefColumns)))
	}
	return nil
}
