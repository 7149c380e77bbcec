package oracle_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/oracle"
)

func TestDSNFromFields(t *testing.T) {
	dsn, err := oracle.DSN(core.ConnConfig{
		Host:     "db.internal",
		User:     "hr",
		Password: "s3cret",
		Database: "ORCLPDB1",
		Params:   map[string]string{"TIMEOUT": "30"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "oracle", u.Scheme)
	assert.Equal(t, "db.internal:1521", u.Host)
	assert.Equal(t, "/ORCLPDB1", u.Path)
	assert.Equal(t, "hr", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "30", u.Query().Get("TIMEOUT"))
}

func TestDSNRequiresService(t *testing.T) {
	_, err := oracle.DSN(core.ConnConfig{Host: "db", User: "hr"})
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestDSNURLMergesParams(t *testing.T) {
	dsn, err := oracle.DSN(core.ConnConfig{
		DSN:    "oracle://hr:pw@10.0.0.5:1522/FREEPDB1?SSL=false",
		Params: map[string]string{"PREFETCH_ROWS": "500"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:1522", u.Host)
	assert.Equal(t, "false", u.Query().Get("SSL"))
	assert.Equal(t, "500", u.Query().Get("PREFETCH_ROWS"))
}

func TestDSNRejectsNonURL(t *testing.T) {
	_, err := oracle.DSN(core.ConnConfig{DSN: "hr/hunter2@db:1521/ORCLPDB1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.NotContains(t, err.Error(), "hunter2")
}
