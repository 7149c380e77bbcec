package postgres_test

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/postgres"
)

func TestDSNFromFields(t *testing.T) {
	dsn, err := postgres.DSN(core.ConnConfig{
		Host:     "db",
		User:     "app",
		Password: "it's secret",
		Database: "shop",
		Params:   map[string]string{"application_name": "sqlbridge"},
	})
	require.NoError(t, err)
	assert.Equal(t, `application_name=sqlbridge dbname=shop host=db password='it\'s secret' port=5432 sslmode=disable user=app`, dsn)
}

func TestDSNParamsOverrideSSLMode(t *testing.T) {
	dsn, err := postgres.DSN(core.ConnConfig{Host: "db", Params: map[string]string{"sslmode": "require"}})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 sslmode=require", dsn)
}

func TestDSNURL(t *testing.T) {
	dsn, err := postgres.DSN(core.ConnConfig{
		DSN:    "postgresql://app:pw@db:5433/shop?sslmode=disable",
		Params: map[string]string{"connect_timeout": "5"},
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5433/shop?connect_timeout=5&sslmode=disable", dsn)

	conninfo, err := pq.ParseURL(dsn)
	require.NoError(t, err)
	assert.Contains(t, conninfo, "dbname='shop'")
	assert.Contains(t, conninfo, "connect_timeout='5'")
}

func TestDSNKeyValuePassthrough(t *testing.T) {
	dsn, err := postgres.DSN(core.ConnConfig{DSN: "host=db dbname=shop", Params: map[string]string{"sslmode": "verify-full"}})
	require.NoError(t, err)
	assert.Equal(t, "host=db dbname=shop sslmode=verify-full", dsn)
}

func TestDSNMalformedURL(t *testing.T) {
	_, err := postgres.DSN(core.ConnConfig{DSN: "postgres://app:hunter2@db:notaport/shop"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.NotContains(t, err.Error(), "hunter2")
}
