package sqlserver_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/sqlserver"
)

func TestDSNFromFields(t *testing.T) {
	dsn, err := sqlserver.DSN(core.ConnConfig{
		Host:     "db.internal",
		User:     "app",
		Password: "p@ss:word",
		Database: "shop",
		Params:   map[string]string{"encrypt": "disable"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "db.internal:1433", u.Host)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss:word", pw)
	assert.Equal(t, "shop", u.Query().Get("database"))
	assert.Equal(t, "disable", u.Query().Get("encrypt"))

	c, err := msdsn.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, "app", c.User)
	assert.Equal(t, "shop", c.Database)
}

func TestDSNURLMergesParams(t *testing.T) {
	dsn, err := sqlserver.DSN(core.ConnConfig{
		DSN:    "mssql://sa:pw@10.0.0.5:1434?database=app",
		Params: map[string]string{"app name": "sqlbridge"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "10.0.0.5:1434", u.Host)
	assert.Equal(t, "app", u.Query().Get("database"))
	assert.Equal(t, "sqlbridge", u.Query().Get("app name"))
}

func TestDSNADOAppendsSortedParams(t *testing.T) {
	dsn, err := sqlserver.DSN(core.ConnConfig{
		DSN:    "server=db;user id=sa;password=pw;",
		Params: map[string]string{"encrypt": "disable", "database": "app"},
	})
	require.NoError(t, err)
	assert.Equal(t, "server=db;user id=sa;password=pw;database=app;encrypt=disable", dsn)
}

func TestDSNRejectsMalformedURL(t *testing.T) {
	_, err := sqlserver.DSN(core.ConnConfig{DSN: "sqlserver://sa:hunter2@db:%zz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.False(t, strings.Contains(err.Error(), "hunter2"))
}
