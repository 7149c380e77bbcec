package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sqlbridge/internal/core"
)

// Analyze snapshots the given schemas (every user schema when none are
// named) and returns the tables in insertion order.
func Analyze(ctx context.Context, in core.Introspector, schemas ...string) ([]*Table, error) {
	snap, err := in.Snapshot(ctx, schemas...)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot schema: %w", err)
	}
	return SortTablesByFKCount(FromSnapshot(snap)), nil
}

// FromSnapshot annotates every table of snap. Only single-column foreign
// keys between tables of the snapshot become dependencies; self references
// are ignored.
func FromSnapshot(snap *core.SchemaSnapshot) []*Table {
	// Upper-cased keys so references match whatever case the catalog used.
	tableMap := make(map[string]*Table, len(snap.Tables))
	tables := make([]*Table, 0, len(snap.Tables))

	for _, def := range snap.Tables {
		t := &Table{Def: def, Dependencies: []string{}}
		for _, cd := range def.Columns {
			t.Columns = append(t.Columns, &Column{
				ColumnDef: cd,
				IsPK:      def.IsPrimaryKey(cd.Name),
				IsUnique:  def.IsUnique(cd.Name),
				Meaning:   AnalyzeMeaning(cd.Name, cd.Comment),
			})
		}
		tableMap[strings.ToUpper(t.Name())] = t
		tables = append(tables, t)
	}

	for _, t := range tables {
		for _, fk := range t.Def.ForeignKeys {
			if len(fk.Columns) != 1 || len(fk.RefColumns) != 1 {
				continue
			}
			ref := core.TableIdent{Schema: fk.RefSchema, Table: fk.RefTable}
			if ref.Schema == "" {
				ref.Schema = t.Def.Ident.Schema
			}
			target, ok := tableMap[strings.ToUpper(ref.String())]
			if !ok || target == t {
				continue
			}
			t.Dependencies = append(t.Dependencies, target.Name())
			t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
				Column:    fk.Columns[0],
				RefTable:  target.Name(),
				RefColumn: fk.RefColumns[0],
			})
		}
	}
	return tables
}

// SortTablesByFKCount sorts tables by dependency order.
// It handles circular dependencies by using a scoring system.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name()] = t
	}

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: tables whose dependencies are all placed.
		for _, t := range tables {
			if processed[t.Name()] {
				continue
			}
			ready := true
			for _, dep := range t.Dependencies {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name()] = true
				added = true
			}
		}
		if added {
			continue
		}

		// Pass 2: a cycle. Place the table with the fewest open
		// dependencies, preferring one that sits on a two-table cycle.
		var best *Table
		bestScore := 0
		for _, t := range tables {
			if processed[t.Name()] {
				continue
			}
			score := 0
			for _, dep := range t.Dependencies {
				if processed[dep] {
					continue
				}
				score -= 100
				if d, ok := byName[dep]; ok && dependsOn(d, t.Name()) {
					score += 500
				}
			}
			if best == nil || score > bestScore || (score == bestScore && t.Name() < best.Name()) {
				best, bestScore = t, score
			}
		}
		sorted = append(sorted, best)
		processed[best.Name()] = true
		slog.Debug("breaking circular dependency", "table", best.Name(), "score", bestScore)
	}

	return sorted
}

func dependsOn(t *Table, name string) bool {
	for _, dep := range t.Dependencies {
		if dep == name {
			return true
		}
	}
	return false
}
