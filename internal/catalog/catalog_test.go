package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/catalog"
	"sqlbridge/internal/catalog/catalogtest"
	"sqlbridge/internal/core"
)

// txQuerier passes for a transaction; LoadTables never calls into it.
type txQuerier struct{ core.Tx }

func refs(n int) []catalog.TableRef {
	out := make([]catalog.TableRef, n)
	for i := range out {
		out[i] = catalog.TableRef{Ident: core.TableIdent{Schema: "s", Table: fmt.Sprintf("t%02d", i)}}
	}
	return out
}

// inFlight returns a loader recording the highest number of concurrent
// calls.
func inFlight(peak *atomic.Int32) catalog.LoadFunc {
	var running atomic.Int32
	return func(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return &core.TableDef{Ident: ref.Ident}, nil
	}
}

func TestLoadTablesKeepsOrder(t *testing.T) {
	var peak atomic.Int32
	tables, err := catalog.LoadTables(context.Background(), &catalogtest.Querier{}, refs(12), inFlight(&peak))
	require.NoError(t, err)
	require.Len(t, tables, 12)
	for i, def := range tables {
		assert.Equal(t, fmt.Sprintf("t%02d", i), def.Ident.Table)
	}
	assert.LessOrEqual(t, peak.Load(), int32(catalog.Concurrency))
}

func TestLoadTablesInTransactionIsSequential(t *testing.T) {
	var peak atomic.Int32
	tables, err := catalog.LoadTables(context.Background(), txQuerier{}, refs(8), inFlight(&peak))
	require.NoError(t, err)
	assert.Len(t, tables, 8)
	assert.Equal(t, int32(1), peak.Load())
}

func TestLoadTablesReportsTable(t *testing.T) {
	boom := errors.New("boom")
	_, err := catalog.LoadTables(context.Background(), &catalogtest.Querier{}, refs(3),
		func(ctx context.Context, ref catalog.TableRef) (*core.TableDef, error) {
			if ref.Ident.Table == "t01" {
				return nil, boom
			}
			return &core.TableDef{Ident: ref.Ident}, nil
		})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s.t01")
}

func TestGroupsKeepFirstSeenOrder(t *testing.T) {
	var g catalog.Groups[core.IndexDef]
	for _, r := range [][2]string{{"idx_b", "x"}, {"idx_a", "y"}, {"idx_b", "z"}} {
		idx := g.Get(r[0], func() core.IndexDef { return core.IndexDef{Name: r[0]} })
		idx.Columns = append(idx.Columns, r[1])
	}
	assert.Equal(t, []core.IndexDef{
		{Name: "idx_b", Columns: []string{"x", "z"}},
		{Name: "idx_a", Columns: []string{"y"}},
	}, g.Values())
}
