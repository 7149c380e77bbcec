package sqlclient

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"sqlbridge/internal/core"
)

// Tx is a transaction pinned to one checked-out connection.
type Tx struct {
	client *Client
	conn   *sql.Conn
	tx     *sql.Tx

	// mu keeps statements on the shared connection one at a time.
	mu      sync.Mutex
	done    atomic.Bool
	release sync.Once
}

var _ core.Tx = (*Tx)(nil)

// Begin checks out a connection and starts a transaction on it. The
// connection goes back to the pool on Commit or Rollback.
func (c *Client) Begin(ctx context.Context, opts ...core.TxOption) (core.Tx, error) {
	return c.begin(ctx, core.NewTxOptions(opts...))
}

func (c *Client) begin(ctx context.Context, o core.TxOptions) (*Tx, error) {
	if err := c.checkOpen("begin"); err != nil {
		return nil, err
	}
	txOpts, err := c.flavor.txOptions(o)
	if err != nil {
		return nil, core.NewError(core.ErrInvalidInput, c.flavor.Dialect, "begin", err.Error(), nil)
	}
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, core.ConnectionError(c.flavor.Dialect, "begin", err)
	}
	tx, err := conn.BeginTx(ctx, txOpts)
	if err != nil {
		c.release(conn)
		return nil, core.StatementError(c.flavor.Dialect, "begin", err)
	}
	return &Tx{client: c, conn: conn, tx: tx}, nil
}

// Transaction runs fn in a transaction on a dedicated connection. A non-nil
// error or a panic from fn rolls back; the error fn returned is the one
// reported even when the rollback itself fails. The connection is released
// exactly once on every path.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error, opts ...core.TxOption) error {
	tx, err := c.begin(ctx, core.NewTxOptions(opts...))
	if err != nil {
		return err
	}
	defer tx.finish()
	defer func() {
		if p := recover(); p != nil {
			tx.abort(nil)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tx.abort(err)
		return err
	}
	if tx.done.Load() {
		return nil
	}
	return tx.Commit(ctx)
}

func (t *Tx) Dialect() core.Dialect { return t.client.flavor.Dialect }

func (t *Tx) Query(ctx context.Context, query string, args []any, opts ...core.QueryOption) (*core.QueryResult, error) {
	if err := t.checkActive("query"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.runQuery(ctx, t.tx, query, args, opts)
}

func (t *Tx) Exec(ctx context.Context, query string, args []any, opts ...core.QueryOption) (*core.ExecResult, error) {
	if err := t.checkActive("exec"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.runExec(ctx, t.tx, query, args, opts)
}

func (t *Tx) Stream(ctx context.Context, query string, args []any, opts ...core.QueryOption) core.Stream {
	return newStream(t.client, query, opts, func(ctx context.Context, q string) (*core.QueryResult, error) {
		return t.Query(ctx, q, args, pageOptions(opts)...)
	})
}

// Prepare prepares query inside the transaction. Closing the statement does
// not release the transaction's connection.
func (t *Tx) Prepare(ctx context.Context, query string) (core.PreparedStatement, error) {
	if err := t.checkActive("prepare"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, core.StatementError(t.Dialect(), "prepare", err)
	}
	return &Prepared{client: t.client, stmt: stmt, mu: &t.mu}, nil
}

// Savepoint creates a savepoint. An empty name gets a generated one.
func (t *Tx) Savepoint(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if err := t.control(ctx, "savepoint", t.tcl().Savepoint(name)); err != nil {
		return "", err
	}
	return name, nil
}

// RollbackTo rolls back to the named savepoint; with an empty name it rolls
// back the whole transaction.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	if name == "" {
		return t.Rollback(ctx)
	}
	return t.control(ctx, "rollback to savepoint", t.tcl().RollbackTo(name))
}

// Release releases a savepoint. It is a no-op on engines without RELEASE.
func (t *Tx) Release(ctx context.Context, name string) error {
	return t.control(ctx, "release savepoint", t.tcl().ReleaseSavepoint(name))
}

func (t *Tx) Commit(context.Context) error {
	if !t.done.CompareAndSwap(false, true) {
		return core.NewError(core.ErrClosed, t.Dialect(), "commit", "transaction already finished", sql.ErrTxDone)
	}
	defer t.finish()
	if err := t.tx.Commit(); err != nil {
		return core.StatementError(t.Dialect(), "commit", err)
	}
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if !t.done.CompareAndSwap(false, true) {
		return core.NewError(core.ErrClosed, t.Dialect(), "rollback", "transaction already finished", sql.ErrTxDone)
	}
	defer t.finish()
	if err := t.tx.Rollback(); err != nil {
		return core.StatementError(t.Dialect(), "rollback", err)
	}
	return nil
}

// abort rolls back after a failure. Rollback errors are logged, never
// returned, so the original failure stays visible.
func (t *Tx) abort(cause error) {
	if !t.done.CompareAndSwap(false, true) {
		return
	}
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.client.logger.Warn("rollback failed", "err", err, "cause", cause)
	}
}

// finish returns the connection to the pool.
func (t *Tx) finish() {
	t.release.Do(func() { t.client.release(t.conn) })
}

func (t *Tx) control(ctx context.Context, op, stmt string) error {
	if stmt == "" {
		return nil
	}
	if err := t.checkActive(op); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return core.StatementError(t.Dialect(), op, err)
	}
	return nil
}

func (t *Tx) tcl() core.TCLBuilder { return t.client.flavor.Builders.TCL }

func (t *Tx) checkActive(op string) error {
	if t.done.Load() {
		return core.NewError(core.ErrClosed, t.Dialect(), op, "transaction already finished", nil)
	}
	return nil
}
