// Package catalogtest provides a canned core.Querier for introspector tests.
package catalogtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sqlbridge/internal/core"
)

type answer struct {
	match string
	rows  []core.Row
	err   error
}

// Querier answers each query with the first registered result whose match
// string occurs in the SQL text. It is safe for concurrent use.
type Querier struct {
	mu      sync.Mutex
	answers []answer
	queries []string
	args    [][]any
}

var _ core.Querier = (*Querier)(nil)

// On registers rows for queries containing match.
func (q *Querier) On(match string, rows ...core.Row) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.answers = append(q.answers, answer{match: match, rows: rows})
	return q
}

// Fail makes queries containing match return err.
func (q *Querier) Fail(match string, err error) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.answers = append(q.answers, answer{match: match, err: err})
	return q
}

func (q *Querier) Query(ctx context.Context, query string, args []any, _ ...core.QueryOption) (*core.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queries = append(q.queries, query)
	q.args = append(q.args, args)
	for _, a := range q.answers {
		if !strings.Contains(query, a.match) {
			continue
		}
		if a.err != nil {
			return nil, a.err
		}
		return &core.QueryResult{Rows: a.rows, RowCount: len(a.rows)}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", strings.TrimSpace(query))
}

func (q *Querier) Exec(context.Context, string, []any, ...core.QueryOption) (*core.ExecResult, error) {
	return nil, fmt.Errorf("exec is not supported by the catalog querier")
}

// Queries returns the SQL text of every query seen so far.
func (q *Querier) Queries() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.queries...)
}

// Args returns the arguments of the first query containing match.
func (q *Querier) Args(match string) []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, query := range q.queries {
		if strings.Contains(query, match) {
			return q.args[i]
		}
	}
	return nil
}

// Row builds a row from alternating column names and values.
func Row(kv ...any) core.Row {
	r := make(core.Row, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = core.ValueOf(kv[i+1])
	}
	return r
}
