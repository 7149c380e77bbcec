package core

import (
	"strings"
	"time"
)

// Row maps column names to values.
type Row map[string]Value

// Get looks a column up by exact name, then case-insensitively.
func (r Row) Get(name string) (Value, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Value{}, false
}

// Lookup returns the first present column among names, or NULL.
func (r Row) Lookup(names ...string) Value {
	for _, n := range names {
		if v, ok := r.Get(n); ok {
			return v
		}
	}
	return Value{}
}

// Str returns the column as text, empty when absent or NULL.
func (r Row) Str(name string) string {
	v, _ := r.Get(name)
	return v.Text()
}

// Int returns the column as an integer, parsing text and float cells.
func (r Row) Int(name string) (int64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch v.Kind() {
	case KindInt:
		i, _ := v.AsInt()
		return i, true
	case KindFloat:
		f, _ := v.AsFloat()
		return int64(f), true
	case KindBool:
		if b, _ := v.AsBool(); b {
			return 1, true
		}
		return 0, true
	case KindString, KindBytes:
		return parseInt(v.Text())
	}
	return 0, false
}

// FieldInfo describes one result column.
type FieldInfo struct {
	Name     string      `json:"name"`
	Type     string      `json:"type,omitempty"`
	Nullable Nullability `json:"nullable,omitempty"`
}

// QueryResult holds projected rows in the order the engine returned them.
type QueryResult struct {
	Rows          []Row         `json:"rows"`
	RowCount      int           `json:"rowCount"`
	Fields        []FieldInfo   `json:"fields,omitempty"`
	ExecutionTime time.Duration `json:"executionTime,omitempty"`
	// Truncated is set when MaxRows cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// Columns returns the field names in result order.
func (r *QueryResult) Columns() []string {
	cols := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		cols[i] = f.Name
	}
	return cols
}

// ExecResult reports the effect of a mutating statement.
type ExecResult struct {
	AffectedRows int64 `json:"affectedRows"`
	// LastInsertID is NULL when the engine has no auto-increment semantics.
	LastInsertID  Value         `json:"lastInsertId"`
	ExecutionTime time.Duration `json:"executionTime,omitempty"`
}

// QueryOptions tunes a single query or exec call.
type QueryOptions struct {
	Trace   bool
	MaxRows int
	Timeout time.Duration
}

type QueryOption func(*QueryOptions)

// WithTrace records ExecutionTime on the result.
func WithTrace() QueryOption {
	return func(o *QueryOptions) { o.Trace = true }
}

// WithMaxRows bounds the number of rows returned by Query. For Stream it
// raises the page size above the default.
func WithMaxRows(n int) QueryOption {
	return func(o *QueryOptions) { o.MaxRows = n }
}

// WithTimeout derives a deadline for the call. Cancellation is best effort.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *QueryOptions) { o.Timeout = d }
}

// NewQueryOptions folds opts into a QueryOptions.
func NewQueryOptions(opts ...QueryOption) QueryOptions {
	var o QueryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Statement is rendered SQL plus its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}
