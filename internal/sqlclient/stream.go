package sqlclient

import (
	"context"
	"fmt"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DefaultChunkSize is the minimum page size of a stream.
const DefaultChunkSize = 1000

type pageFunc func(ctx context.Context, query string) (*core.QueryResult, error)

// RowStream pages through a query by appending limit/offset clauses to it.
// Rows are only stable across pages when the query has a deterministic
// ORDER BY and the table is not modified meanwhile; no ordering is added.
type RowStream struct {
	query    string
	paginate func(query string, limit, offset int) string
	fetch    pageFunc
	chunk    int

	buf    []core.Row
	pos    int
	offset int
	pages  int
	row    core.Row
	fields []core.FieldInfo
	done   bool
	closed bool
	err    error
}

var _ core.Stream = (*RowStream)(nil)

func newStream(c *Client, query string, opts []core.QueryOption, fetch pageFunc) *RowStream {
	o := core.NewQueryOptions(opts...)
	chunk := max(DefaultChunkSize, o.MaxRows)
	paginate := limitOffset
	if dml := c.flavor.Builders.DML; dml != nil {
		paginate = dml.Paginate
	}
	s := &RowStream{query: sqlgen.TrimStatement(query), paginate: paginate, chunk: chunk}
	s.fetch = func(ctx context.Context, q string) (*core.QueryResult, error) {
		if err := c.checkOpen("stream"); err != nil {
			return nil, err
		}
		return fetch(ctx, q)
	}
	return s
}

// pageOptions drops MaxRows from per-page queries; the page size already
// bounds them and a smaller cap would end the stream early.
func pageOptions(opts []core.QueryOption) []core.QueryOption {
	out := make([]core.QueryOption, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, core.WithMaxRows(0))
}

func limitOffset(query string, limit, offset int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}

// Next advances to the next row, fetching a page when the current one is
// exhausted. It returns false at the end of data, on error, or after Close.
func (s *RowStream) Next(ctx context.Context) bool {
	if s.closed || s.err != nil {
		return false
	}
	for s.pos >= len(s.buf) {
		if s.done {
			return false
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			return false
		}
		res, err := s.fetch(ctx, s.paginate(s.query, s.chunk, s.offset))
		if err != nil {
			s.err = err
			return false
		}
		s.pages++
		if s.fields == nil {
			s.fields = res.Fields
		}
		s.buf, s.pos = res.Rows, 0
		s.offset += len(res.Rows)
		if len(res.Rows) < s.chunk {
			s.done = true
		}
		if len(res.Rows) == 0 {
			return false
		}
	}
	s.row = s.buf[s.pos]
	s.pos++
	return true
}

func (s *RowStream) Row() core.Row { return s.row }

func (s *RowStream) Err() error { return s.err }

func (s *RowStream) Pages() int { return s.pages }

// Fields describes the result columns once the first page is fetched.
func (s *RowStream) Fields() []core.FieldInfo { return s.fields }

// ChunkSize is the page size in use.
func (s *RowStream) ChunkSize() int { return s.chunk }

// Close stops the stream. Pages hold no connection between fetches, so
// there is nothing to release.
func (s *RowStream) Close() error {
	s.closed = true
	s.buf = nil
	return nil
}
