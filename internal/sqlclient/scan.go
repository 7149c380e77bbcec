package sqlclient

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"sqlbridge/internal/core"
)

// execQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type execQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// stmtQuerier adapts a prepared statement; the query text is ignored.
type stmtQuerier struct{ stmt *sql.Stmt }

func (s stmtQuerier) QueryContext(ctx context.Context, _ string, args ...any) (*sql.Rows, error) {
	return s.stmt.QueryContext(ctx, args...)
}

func (s stmtQuerier) ExecContext(ctx context.Context, _ string, args ...any) (sql.Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}

// bindArgs unwraps core.Value arguments so drivers with their own
// parameter checkers see plain Go values.
func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case core.Value:
			out[i] = v.Any()
		case *core.Value:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = v.Any()
			}
		default:
			out[i] = a
		}
	}
	return out
}

func (c *Client) runQuery(ctx context.Context, eq execQuerier, query string, args []any, opts []core.QueryOption) (*core.QueryResult, error) {
	o := core.NewQueryOptions(opts...)
	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()

	c.stats.queries.Add(1)
	start := time.Now()
	rows, err := eq.QueryContext(ctx, query, bindArgs(args)...)
	if err != nil {
		c.observe(ctx, "query", query, time.Since(start), err)
		return nil, core.StatementError(c.flavor.Dialect, "query", err)
	}
	defer rows.Close()

	res, err := scanRows(rows, o.MaxRows)
	elapsed := time.Since(start)
	c.observe(ctx, "query", query, elapsed, err)
	if err != nil {
		return nil, core.StatementError(c.flavor.Dialect, "query", err)
	}
	if o.Trace {
		res.ExecutionTime = elapsed
	}
	return res, nil
}

func (c *Client) runExec(ctx context.Context, eq execQuerier, query string, args []any, opts []core.QueryOption) (*core.ExecResult, error) {
	o := core.NewQueryOptions(opts...)
	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()

	c.stats.execs.Add(1)
	start := time.Now()
	r, err := eq.ExecContext(ctx, query, bindArgs(args)...)
	elapsed := time.Since(start)
	c.observe(ctx, "exec", query, elapsed, err)
	if err != nil {
		return nil, core.StatementError(c.flavor.Dialect, "exec", err)
	}
	res := &core.ExecResult{}
	if n, err := r.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	// Engines without auto-increment semantics report an error here.
	if id, err := r.LastInsertId(); err == nil {
		res.LastInsertID = core.IntValue(id)
	}
	if o.Trace {
		res.ExecutionTime = elapsed
	}
	return res, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// scanRows reads at most maxRows rows (all when maxRows <= 0).
func scanRows(rows *sql.Rows, maxRows int) (*core.QueryResult, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	res := &core.QueryResult{Fields: make([]core.FieldInfo, len(types)), Rows: []core.Row{}}
	for i, ct := range types {
		f := core.FieldInfo{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		if nullable, ok := ct.Nullable(); ok {
			f.Nullable = core.NotNull
			if nullable {
				f.Nullable = core.Nullable
			}
		}
		res.Fields[i] = f
	}

	raw := make([]any, len(types))
	dest := make([]any, len(types))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if maxRows > 0 && len(res.Rows) == maxRows {
			res.Truncated = true
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(core.Row, len(types))
		for i, f := range res.Fields {
			row[f.Name] = Decode(f.Type, raw[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

// Decode turns a scanned driver value into a core.Value. Text protocols hand
// numbers over as bytes, so the database type name decides how they parse.
// Decimals stay strings to keep their precision.
func Decode(dbType string, raw any) core.Value {
	var text string
	switch x := raw.(type) {
	case []byte:
		if isBinaryType(dbType) {
			return core.BytesValue(x)
		}
		text = string(x)
	case string:
		text = x
	default:
		return core.ValueOf(raw)
	}

	switch t := strings.ToUpper(dbType); {
	case isIntType(t):
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return core.IntValue(i)
		}
	case isFloatType(t):
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return core.FloatValue(f)
		}
	case t == "BOOL" || t == "BOOLEAN":
		if b, err := strconv.ParseBool(text); err == nil {
			return core.BoolValue(b)
		}
	}
	return core.StringValue(text)
}

func isIntType(t string) bool {
	t = strings.TrimPrefix(t, "UNSIGNED ")
	switch t {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "SMALLSERIAL", "YEAR":
		return true
	}
	return false
}

func isFloatType(t string) bool {
	switch t {
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION", "BINARY_FLOAT", "BINARY_DOUBLE":
		return true
	}
	return false
}

func isBinaryType(dbType string) bool {
	t := strings.ToUpper(dbType)
	if isFloatType(t) {
		return false
	}
	switch {
	case strings.Contains(t, "BLOB"), strings.Contains(t, "BINARY"),
		t == "BYTEA", t == "IMAGE", t == "RAW", t == "LONG RAW", t == "BIT", t == "GEOMETRY":
		return true
	}
	return false
}
