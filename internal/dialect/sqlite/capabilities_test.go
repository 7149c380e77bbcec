package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/sqlite"
)

func TestRefineThresholds(t *testing.T) {
	base := sqlite.Baseline()
	assert.False(t, base.DCL.Users)
	assert.Equal(t, core.UpsertNone, base.DML.Upsert)

	old := sqlite.Refine(base, "3.22.0")
	assert.Equal(t, core.UpsertNone, old.DML.Upsert)
	assert.False(t, old.DML.WindowFunctions)

	m := sqlite.Refine(base, "3.35.5")
	assert.Equal(t, core.UpsertOnConflict, m.DML.Upsert)
	assert.True(t, m.DML.WindowFunctions)
	assert.True(t, m.DDL.ComputedColumns)
	assert.True(t, m.DML.Returning)
	assert.False(t, m.Misc.JSONNative)

	assert.True(t, sqlite.Refine(base, "3.45.1").Misc.JSONNative)
	assert.Equal(t, base, sqlite.Refine(base, ""))
}
