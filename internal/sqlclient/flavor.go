package sqlclient

import (
	"database/sql"
	"fmt"

	"sqlbridge/internal/core"
)

// Flavor carries the dialect-specific pieces the shared client needs.
type Flavor struct {
	Dialect  core.Dialect
	Baseline core.CapabilityMatrix
	// VersionQuery returns one row; its non-null columns are joined with a
	// space and handed to Refine.
	VersionQuery string
	Refine       func(base core.CapabilityMatrix, version string) core.CapabilityMatrix
	Builders     core.Builders
	// TxOptions maps transaction options for the driver. Nil means
	// StdTxOptions.
	TxOptions func(core.TxOptions) (*sql.TxOptions, error)
}

// StdTxOptions maps isolation levels onto database/sql levels.
func StdTxOptions(o core.TxOptions) (*sql.TxOptions, error) {
	opts := &sql.TxOptions{ReadOnly: o.ReadOnly}
	switch o.Isolation {
	case core.IsolationDefault:
		opts.Isolation = sql.LevelDefault
	case core.ReadUncommitted:
		opts.Isolation = sql.LevelReadUncommitted
	case core.ReadCommitted:
		opts.Isolation = sql.LevelReadCommitted
	case core.RepeatableRead:
		opts.Isolation = sql.LevelRepeatableRead
	case core.Serializable:
		opts.Isolation = sql.LevelSerializable
	default:
		return nil, fmt.Errorf("unknown isolation level %q", o.Isolation)
	}
	return opts, nil
}

func (f Flavor) txOptions(o core.TxOptions) (*sql.TxOptions, error) {
	if f.TxOptions != nil {
		return f.TxOptions(o)
	}
	return StdTxOptions(o)
}
