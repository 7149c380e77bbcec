package core

import (
	"context"
	"database/sql"
	"iter"
	"time"
)

// Querier is the query/exec shape shared by clients, transactions and
// prepared statements.
type Querier interface {
	Query(ctx context.Context, query string, args []any, opts ...QueryOption) (*QueryResult, error)
	Exec(ctx context.Context, query string, args []any, opts ...QueryOption) (*ExecResult, error)
}

// Client is one logical connection backed by a pool.
type Client interface {
	Querier
	Dialect() Dialect
	Begin(ctx context.Context, opts ...TxOption) (Tx, error)
	// Transaction runs fn on a dedicated connection, committing when fn
	// returns nil and rolling back otherwise. The connection is released on
	// every path.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error, opts ...TxOption) error
	Prepare(ctx context.Context, query string) (PreparedStatement, error)
	Stream(ctx context.Context, query string, args []any, opts ...QueryOption) Stream
	// Capabilities is memoized per client and never fails; detection
	// problems yield the provider baseline.
	Capabilities(ctx context.Context) CapabilityMatrix
	// DB exposes the underlying pool for callers that need database/sql.
	DB() *sql.DB
	Close() error
}

// Tx is a transaction bound to one physical connection.
type Tx interface {
	Querier
	Dialect() Dialect
	Prepare(ctx context.Context, query string) (PreparedStatement, error)
	Stream(ctx context.Context, query string, args []any, opts ...QueryOption) Stream
	// Savepoint creates a savepoint and returns its name. An empty name is
	// replaced with a generated unique one.
	Savepoint(ctx context.Context, name string) (string, error)
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PreparedStatement is reusable until Close.
type PreparedStatement interface {
	Query(ctx context.Context, args []any, opts ...QueryOption) (*QueryResult, error)
	Exec(ctx context.Context, args []any, opts ...QueryOption) (*ExecResult, error)
	Close() error
}

// Stream is a lazy, forward-only, non-restartable row cursor.
//
//	s := client.Stream(ctx, "SELECT * FROM t ORDER BY id", nil)
//	defer s.Close()
//	for s.Next(ctx) {
//		row := s.Row()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	Next(ctx context.Context) bool
	Row() Row
	Err() error
	// Pages reports how many pages have been fetched so far.
	Pages() int
	Close() error
}

// Rows adapts a Stream to a range-over-func sequence. Iteration stops at the
// first error, which is yielded once.
func Rows(ctx context.Context, s Stream) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		defer s.Close()
		for s.Next(ctx) {
			if !yield(s.Row(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// TxOptions configures Begin and Transaction.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

type TxOption func(*TxOptions)

func WithIsolation(level IsolationLevel) TxOption {
	return func(o *TxOptions) { o.Isolation = level }
}

func ReadOnly() TxOption {
	return func(o *TxOptions) { o.ReadOnly = true }
}

func NewTxOptions(opts ...TxOption) TxOptions {
	var o TxOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TransactionValue runs fn inside c.Transaction and returns its value.
func TransactionValue[T any](ctx context.Context, c Client, fn func(ctx context.Context, tx Tx) (T, error), opts ...TxOption) (T, error) {
	var out T
	err := c.Transaction(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Introspector reads live catalog metadata.
type Introspector interface {
	// Snapshot captures the given schemas, or every non-system schema when
	// none are named.
	Snapshot(ctx context.Context, schemas ...string) (*SchemaSnapshot, error)
	// Table returns one table; ErrNotFound when it does not exist.
	Table(ctx context.Context, ident TableIdent) (*TableDef, error)
	ShowCreateTable(ctx context.Context, ident TableIdent) (string, error)
}

// ConnConfig is the normalized connection configuration handed to
// providers. DSN keeps the caller's original string when there was one.
type ConnConfig struct {
	Dialect  Dialect           `json:"dialect" yaml:"dialect" mapstructure:"dialect"`
	DSN      string            `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Host     string            `json:"host,omitempty" yaml:"host,omitempty" mapstructure:"host"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty" mapstructure:"port"`
	User     string            `json:"user,omitempty" yaml:"user,omitempty" mapstructure:"user"`
	Password string            `json:"-" yaml:"password,omitempty" mapstructure:"password"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty" mapstructure:"database"`
	File     string            `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	MaxOpenConns    int           `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime,omitempty" yaml:"connMaxLifetime,omitempty" mapstructure:"conn_max_lifetime"`
}

// DefaultMaxOpenConns bounds the pool when the config leaves it unset.
const DefaultMaxOpenConns = 10

// ApplyPool configures db from the pool settings of c.
func (c ConnConfig) ApplyPool(db *sql.DB) {
	open := c.MaxOpenConns
	if open <= 0 {
		open = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(open)
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
}

// Provider bundles everything one engine needs.
type Provider interface {
	Dialect() Dialect
	// Capabilities is the conservative static baseline.
	Capabilities() CapabilityMatrix
	Connect(ctx context.Context, cfg ConnConfig) (Client, error)
	NewIntrospector(q Querier) Introspector
	Builders() Builders
}
