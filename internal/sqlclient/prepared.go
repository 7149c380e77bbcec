package sqlclient

import (
	"context"
	"database/sql"
	"sync"

	"sqlbridge/internal/core"
)

// Prepared is a prepared statement. Statements prepared on the client own
// their connection; statements prepared in a transaction borrow it.
type Prepared struct {
	client *Client
	stmt   *sql.Stmt
	conn   *sql.Conn
	// mu is the owning transaction's statement lock, nil outside one.
	mu     *sync.Mutex

	once sync.Once
	err  error
}

var _ core.PreparedStatement = (*Prepared)(nil)

func (p *Prepared) Query(ctx context.Context, args []any, opts ...core.QueryOption) (*core.QueryResult, error) {
	defer p.lock()()
	return p.client.runQuery(ctx, stmtQuerier{p.stmt}, "", args, opts)
}

func (p *Prepared) Exec(ctx context.Context, args []any, opts ...core.QueryOption) (*core.ExecResult, error) {
	defer p.lock()()
	return p.client.runExec(ctx, stmtQuerier{p.stmt}, "", args, opts)
}

func (p *Prepared) lock() (unlock func()) {
	if p.mu == nil {
		return func() {}
	}
	p.mu.Lock()
	return p.mu.Unlock
}

// Close frees the server-side statement, then releases the connection it
// owns. Further calls return the first result.
func (p *Prepared) Close() error {
	p.once.Do(func() {
		if err := p.stmt.Close(); err != nil {
			p.err = core.StatementError(p.client.flavor.Dialect, "close statement", err)
		}
		if p.conn != nil {
			if err := p.conn.Close(); err != nil && p.err == nil {
				p.err = core.ConnectionError(p.client.flavor.Dialect, "release connection", err)
			}
		}
	})
	return p.err
}
