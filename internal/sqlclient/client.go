package sqlclient

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sqlbridge/internal/core"
)

// Client implements core.Client over a database/sql pool.
type Client struct {
	db     *sql.DB
	flavor Flavor
	logger *slog.Logger
	slow   time.Duration
	stats  counters

	capsMu sync.Mutex
	caps   *core.CapabilityMatrix
	closed atomic.Bool
}

var _ core.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger. The dialect is attached as an
// attribute.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSlowThreshold logs statements slower than d at Warn level.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *Client) { c.slow = d }
}

// New wraps an open pool.
func New(db *sql.DB, flavor Flavor, opts ...Option) *Client {
	c := &Client{db: db, flavor: flavor}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("dialect", string(flavor.Dialect))
	return c
}

func (c *Client) Dialect() core.Dialect { return c.flavor.Dialect }

func (c *Client) DB() *sql.DB { return c.db }

// Builders returns the statement builders of the client's dialect.
func (c *Client) Builders() core.Builders { return c.flavor.Builders }

func (c *Client) Query(ctx context.Context, query string, args []any, opts ...core.QueryOption) (*core.QueryResult, error) {
	if err := c.checkOpen("query"); err != nil {
		return nil, err
	}
	return c.runQuery(ctx, c.db, query, args, opts)
}

func (c *Client) Exec(ctx context.Context, query string, args []any, opts ...core.QueryOption) (*core.ExecResult, error) {
	if err := c.checkOpen("exec"); err != nil {
		return nil, err
	}
	return c.runExec(ctx, c.db, query, args, opts)
}

// Stream pages through query on pooled connections.
func (c *Client) Stream(ctx context.Context, query string, args []any, opts ...core.QueryOption) core.Stream {
	return newStream(c, query, opts, func(ctx context.Context, q string) (*core.QueryResult, error) {
		return c.Query(ctx, q, args, pageOptions(opts)...)
	})
}

// Prepare checks out a dedicated connection and prepares query on it. The
// connection is released by the statement's Close.
func (c *Client) Prepare(ctx context.Context, query string) (core.PreparedStatement, error) {
	if err := c.checkOpen("prepare"); err != nil {
		return nil, err
	}
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, core.ConnectionError(c.flavor.Dialect, "prepare", err)
	}
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		c.release(conn)
		return nil, core.StatementError(c.flavor.Dialect, "prepare", err)
	}
	return &Prepared{client: c, stmt: stmt, conn: conn}, nil
}

// Capabilities detects the server version once and refines the baseline.
// A failed or unparsable detection yields the baseline.
func (c *Client) Capabilities(ctx context.Context) core.CapabilityMatrix {
	c.capsMu.Lock()
	defer c.capsMu.Unlock()
	if c.caps != nil {
		return *c.caps
	}
	m, ok := c.detect(ctx)
	if ok || ctx.Err() == nil {
		c.caps = &m
	}
	return m
}

func (c *Client) detect(ctx context.Context) (core.CapabilityMatrix, bool) {
	base := c.flavor.Baseline
	if c.flavor.VersionQuery == "" || c.flavor.Refine == nil {
		return base, true
	}
	res, err := c.Query(ctx, c.flavor.VersionQuery, nil)
	if err != nil || len(res.Rows) == 0 {
		c.logger.DebugContext(ctx, "version detection failed, using baseline capabilities", "err", err)
		return base, false
	}
	var parts []string
	for _, f := range res.Fields {
		if v := res.Rows[0][f.Name]; !v.IsNull() {
			parts = append(parts, v.Text())
		}
	}
	version := strings.Join(parts, " ")
	c.logger.DebugContext(ctx, "server version detected", "version", version)
	return c.flavor.Refine(base, version), true
}

// Close closes the pool.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.db.Close()
}

func (c *Client) checkOpen(op string) error {
	if c.closed.Load() {
		return core.NewError(core.ErrClosed, c.flavor.Dialect, op, "client is closed", nil)
	}
	return nil
}

func (c *Client) release(conn *sql.Conn) {
	if err := conn.Close(); err != nil {
		c.logger.Warn("releasing connection failed", "err", err)
	}
}

// Stats is a snapshot of statement counters.
type Stats struct {
	Queries int64
	Execs   int64
	Errors  int64
	Slow    int64
}

type counters struct {
	queries, execs, errors, slow atomic.Int64
}

// Stats returns the statement counters since the client was created.
func (c *Client) Stats() Stats {
	return Stats{
		Queries: c.stats.queries.Load(),
		Execs:   c.stats.execs.Load(),
		Errors:  c.stats.errors.Load(),
		Slow:    c.stats.slow.Load(),
	}
}

func (c *Client) observe(ctx context.Context, op, query string, elapsed time.Duration, err error) {
	if err != nil {
		c.stats.errors.Add(1)
	}
	if c.slow > 0 && elapsed >= c.slow {
		c.stats.slow.Add(1)
		c.logger.WarnContext(ctx, "slow query detected", "op", op, "duration", elapsed, "query", query)
	}
}
