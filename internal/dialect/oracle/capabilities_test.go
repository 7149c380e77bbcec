package oracle_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/oracle"
	"sqlbridge/internal/sqlclient"
)

func TestRefineThresholds(t *testing.T) {
	base := oracle.Baseline()

	assert.False(t, oracle.Refine(base, "12.1.0.2.0").Misc.JSONNative)
	assert.True(t, oracle.Refine(base, "12.2.0.1.0").Misc.JSONNative)
	assert.True(t, oracle.Refine(base, "19.0.0.0.0").Misc.JSONNative)

	m := oracle.Refine(base, "23.0.0.0.0")
	assert.Equal(t, core.UpsertMerge, m.DML.Upsert)
	assert.False(t, m.DML.Returning)
	assert.Equal(t, base, oracle.Refine(base, "Oracle Database"))
}

func TestClientDetectsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []*sqlmock.Column{mock.NewColumn("VERSION")}
	mock.ExpectQuery("FROM product_component_version").
		WillReturnRows(mock.NewRowsWithColumnDefinition(cols...).AddRow("19.0.0.0.0"))

	c := sqlclient.New(db, oracle.Flavor())
	caps := c.Capabilities(context.Background())

	assert.True(t, caps.Misc.JSONNative)
	assert.NoError(t, mock.ExpectationsWereMet())
}
