// Package engine seeds and cleans databases through the client contract.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect"
	"sqlbridge/internal/schema"
	"sqlbridge/internal/sqlgen"
)

// DefaultPoolLimit caps how many referenced key values are kept per column.
const DefaultPoolLimit = 10000

// Pumper fills tables with generated rows.
type Pumper struct {
	Client   core.Client
	Builders core.Builders
	Gen      *Generator
	Logger   *slog.Logger
	// ExplicitIDs fills identity columns with sequential values instead of
	// leaving them to the engine.
	ExplicitIDs bool
	PoolLimit   int
}

// NewPumper returns a pumper with a randomly seeded generator.
func NewPumper(client core.Client, builders core.Builders) *Pumper {
	return &Pumper{
		Client:   client,
		Builders: builders,
		Gen:      NewGenerator(0),
		Logger:   slog.Default().With("dialect", client.Dialect().String()),
	}
}

// getDataTypeMaxValue returns the largest value an identity of this type
// can hold.
func getDataTypeMaxValue(dataType string) int {
	switch strings.ToLower(dataType) {
	case "tinyint":
		return 255
	case "smallint":
		return 32767
	case "mediumint":
		return 8388607
	default:
		return 2147483647
	}
}

// calculateMaxInsertCount caps count by the range of the identity column.
func (p *Pumper) calculateMaxInsertCount(table *schema.Table, count int) int {
	if c := table.Identity(); c != nil {
		if typeMax := getDataTypeMaxValue(c.DataType); typeMax < count {
			p.Logger.Warn("identity type limits row count", "table", table.Name(), "column", c.Name, "type", c.DataType, "max", typeMax)
			return typeMax
		}
	}
	return count
}

// Pump inserts count rows into each table, in the given order. Rows that
// fail (duplicates, constraint violations) are retried with fresh values up
// to ten times the target. onProgress is called once per inserted row.
func (p *Pumper) Pump(ctx context.Context, tables []*schema.Table, count int, onProgress func()) ([]schema.PumpResult, error) {
	var results []schema.PumpResult
	pool := make(fkPool)
	refs := referencedColumns(tables)

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		initial, err := p.count(ctx, p.Client, table.Ident())
		if err != nil {
			return results, fmt.Errorf("failed to count %s: %w", table.Name(), err)
		}
		target := p.calculateMaxInsertCount(table, count)

		inserted, attempts, err := p.fillTable(ctx, table, target, pool, onProgress)
		res := schema.PumpResult{TableName: table.Name(), Target: count, Status: "OK"}
		if err != nil {
			res.Status = "FAILED"
			res.ErrorMsg = err.Error()
			p.Logger.Error("fill failed", "table", table.Name(), "error", err)
		}

		final, err := p.count(ctx, p.Client, table.Ident())
		if err != nil {
			return results, fmt.Errorf("failed to count %s: %w", table.Name(), err)
		}
		res.Actual = final - initial
		if res.Status == "OK" && res.Actual < target {
			res.Status = "MISSING DATA"
			if inserted == 0 && attempts > 0 {
				res.ErrorMsg = "failed to insert any rows, see the log for details"
			} else {
				res.ErrorMsg = fmt.Sprintf("only inserted %d out of %d", res.Actual, target)
			}
		}
		results = append(results, res)

		for _, col := range refs[table.Name()] {
			if err := p.updateFKPool(ctx, table, col, pool); err != nil {
				p.Logger.Warn("failed to collect key values", "table", table.Name(), "column", col, "error", err)
			}
		}
	}
	return results, nil
}

func (p *Pumper) fillTable(ctx context.Context, table *schema.Table, target int, pool fkPool, onProgress func()) (inserted, attempts int, err error) {
	var insertCols []*schema.Column
	var colNames []string
	identity := table.Identity()
	for _, c := range table.Columns {
		if c.Generated() || (c.AutoIncrement && !p.ExplicitIDs) {
			continue
		}
		insertCols = append(insertCols, c)
		colNames = append(colNames, c.Name)
	}
	if len(insertCols) == 0 {
		return 0, 0, errors.New("no insertable columns")
	}

	// PostgreSQL aborts the whole transaction on a failed statement, so each
	// row runs under its own savepoint there.
	guarded := p.Client.Dialect() == core.PostgreSQL

	err = p.Client.Transaction(ctx, func(ctx context.Context, tx core.Tx) error {
		var nextID int64
		if p.ExplicitIDs && identity != nil {
			if ii, ok := p.Builders.DDL.(dialect.IdentityInserter); ok {
				if _, err := tx.Exec(ctx, ii.IdentityInsert(table.Ident(), true), nil); err != nil {
					return err
				}
				defer func() {
					if _, err := tx.Exec(ctx, ii.IdentityInsert(table.Ident(), false), nil); err != nil {
						p.Logger.Warn("failed to reset identity insert", "table", table.Name(), "error", err)
					}
				}()
			}
			last, err := p.maxValue(ctx, tx, table.Ident(), identity.Name)
			if err != nil {
				return err
			}
			nextID = last
		}

		query := p.Builders.DML.Insert(table.Ident(), colNames)
		stmt, err := tx.Prepare(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		seen := newUniqueTracker(table, insertCols)
		for inserted < target && attempts < target*10 {
			attempts++
			values := p.generateRow(table, insertCols, pool, attempts)
			if identity != nil && p.ExplicitIDs {
				for i, c := range insertCols {
					if c == identity {
						values[i] = nextID + 1
					}
				}
			}
			if !seen.add(values) {
				continue
			}

			err := guard(ctx, tx, guarded, func() error {
				_, err := stmt.Exec(ctx, values)
				return err
			})
			if err != nil {
				if attempts <= 3 {
					p.Logger.Debug("insert failed", "table", table.Name(), "attempt", attempts, "error", err, "query", query)
				}
				continue
			}
			inserted++
			nextID++
			if onProgress != nil {
				onProgress()
			}
		}
		return nil
	})
	return inserted, attempts, err
}

// guard runs fn under a savepoint when guarded, rolling back to it when
// fn fails so the transaction stays usable.
func guard(ctx context.Context, tx core.Tx, guarded bool, fn func() error) error {
	if !guarded {
		return fn()
	}
	sp, err := tx.Savepoint(ctx, "")
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := tx.RollbackTo(ctx, sp); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Release(ctx, sp)
}

func (p *Pumper) generateRow(table *schema.Table, cols []*schema.Column, pool fkPool, index int) []any {
	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = p.smartValue(col, table, pool, index)
	}
	return values
}

// smartValue draws foreign key columns from the referenced table's values
// and generates everything else.
func (p *Pumper) smartValue(col *schema.Column, t *schema.Table, pool fkPool, index int) any {
	fk := t.ForeignKey(col.Name)
	if fk == nil {
		return p.Gen.Value(col)
	}
	if vals := pool[poolKey(fk.RefTable, fk.RefColumn)]; len(vals) > 0 {
		if col.IsUnique || col.IsPK {
			return vals[index%len(vals)]
		}
		return vals[p.Gen.faker.Number(0, len(vals)-1)]
	}
	// Empty pool: the referenced table comes later in a cycle. Guess that
	// it will hold the first identity values.
	if col.IsNullable() {
		return nil
	}
	if col.IsUnique {
		return index
	}
	return 1
}

type fkPool map[string][]any

func poolKey(table, column string) string {
	return strings.ToUpper(table + "." + column)
}

// referencedColumns maps each table to the columns other tables reference.
func referencedColumns(tables []*schema.Table) map[string][]string {
	refs := make(map[string][]string)
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			key := poolKey(fk.RefTable, fk.RefColumn)
			if !seen[key] {
				seen[key] = true
				refs[fk.RefTable] = append(refs[fk.RefTable], fk.RefColumn)
			}
		}
	}
	return refs
}

func (p *Pumper) updateFKPool(ctx context.Context, table *schema.Table, column string, pool fkPool) error {
	limit := p.PoolLimit
	if limit <= 0 {
		limit = DefaultPoolLimit
	}
	ddl := p.Builders.DDL
	query := p.Builders.DML.Paginate(
		"SELECT "+ddl.QuoteIdent(column)+" AS v FROM "+ddl.QuoteTable(table.Ident()), limit, 0)
	res, err := p.Client.Query(ctx, query, nil)
	if err != nil {
		return err
	}
	vals := make([]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		if v, ok := row.Get("v"); ok && !v.IsNull() {
			vals = append(vals, v)
		}
	}
	pool[poolKey(table.Name(), column)] = vals
	return nil
}

func (p *Pumper) count(ctx context.Context, q core.Querier, ident core.TableIdent) (int, error) {
	res, err := q.Query(ctx, "SELECT COUNT(*) AS n FROM "+p.Builders.DDL.QuoteTable(ident), nil)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	n, _ := res.Rows[0].Int("n")
	return int(n), nil
}

func (p *Pumper) maxValue(ctx context.Context, q core.Querier, ident core.TableIdent, column string) (int64, error) {
	ddl := p.Builders.DDL
	res, err := q.Query(ctx, "SELECT MAX("+ddl.QuoteIdent(column)+") AS m FROM "+ddl.QuoteTable(ident), nil)
	if err != nil || len(res.Rows) == 0 {
		return 0, err
	}
	m, _ := res.Rows[0].Int("m")
	return m, nil
}

// VerifyInjection recounts every table after pumping.
func (p *Pumper) VerifyInjection(ctx context.Context, results []schema.PumpResult) []schema.PumpResult {
	verified := make([]schema.PumpResult, 0, len(results))
	for _, res := range results {
		current, err := p.count(ctx, p.Client, core.ParseTableIdent(res.TableName))
		status := "VERIFIED_OK"
		switch {
		case err != nil:
			status = fmt.Sprintf("VERIFY_FAIL: %v", err)
		case current < res.Target:
			status = fmt.Sprintf("PARTIAL: %d/%d", current, res.Target)
		}
		res.Actual, res.Status = current, status
		verified = append(verified, res)
	}
	return verified
}

// Clean empties tables in reverse order with foreign key checks switched
// off. Failures on single tables are logged and skipped.
func (p *Pumper) Clean(ctx context.Context, tables []*schema.Table) error {
	ddl := p.Builders.DDL
	guarded := p.Client.Dialect() == core.PostgreSQL

	return p.Client.Transaction(ctx, func(ctx context.Context, tx core.Tx) error {
		run := func(stmt string) error {
			for _, s := range sqlgen.SplitScript(stmt) {
				err := guard(ctx, tx, guarded, func() error {
					_, err := tx.Exec(ctx, s, nil)
					return err
				})
				if err != nil {
					return err
				}
			}
			return nil
		}

		p.Logger.Info("disabling foreign key checks")
		if err := run(ddl.ForeignKeyChecks(false)); err != nil {
			p.Logger.Warn("failed to disable foreign key checks", "error", err)
		}

		total := len(tables)
		for i := total - 1; i >= 0; i-- {
			table := tables[i]
			if err := run(ddl.TruncateTable(table.Ident())); err != nil {
				p.Logger.Warn("failed to clean table", "table", table.Name(), "error", err)
			}
			if done := total - i; done%5 == 0 || done == total {
				p.Logger.Info("cleaned tables", "done", done, "total", total)
			}
		}

		p.Logger.Info("enabling foreign key checks")
		if err := run(ddl.ForeignKeyChecks(true)); err != nil {
			p.Logger.Warn("failed to enable foreign key checks", "error", err)
		}
		return nil
	})
}

// uniqueTracker rejects rows that repeat a composite primary key or a
// value of a unique column before they reach the engine.
type uniqueTracker struct {
	pk     []int
	unique []int
	combos map[string]bool
	used   map[int]map[string]bool
}

func newUniqueTracker(table *schema.Table, cols []*schema.Column) *uniqueTracker {
	u := &uniqueTracker{combos: make(map[string]bool), used: make(map[int]map[string]bool)}
	for i, c := range cols {
		if c.IsPK {
			u.pk = append(u.pk, i)
		}
		if c.IsUnique {
			u.unique = append(u.unique, i)
			u.used[i] = make(map[string]bool)
		}
	}
	if len(u.pk) < 2 || len(u.pk) != len(table.Def.PrimaryKey.Columns) {
		u.pk = nil
	}
	return u
}

// add records values and reports whether the row is new.
func (u *uniqueTracker) add(values []any) bool {
	var combo string
	if len(u.pk) > 0 {
		parts := make([]string, len(u.pk))
		for i, idx := range u.pk {
			parts[i] = fmt.Sprint(values[idx])
		}
		combo = strings.Join(parts, "|")
		if u.combos[combo] {
			return false
		}
	}
	for _, idx := range u.unique {
		if values[idx] != nil && u.used[idx][fmt.Sprint(values[idx])] {
			return false
		}
	}

	if combo != "" {
		u.combos[combo] = true
	}
	for _, idx := range u.unique {
		if values[idx] != nil {
			u.used[idx][fmt.Sprint(values[idx])] = true
		}
	}
	return true
}
