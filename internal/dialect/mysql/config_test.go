package mysql_test

import (
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/mysql"
)

func TestDSNFromFields(t *testing.T) {
	dsn, err := mysql.DSN(core.ConnConfig{
		Host:     "db.internal",
		Port:     3307,
		User:     "app",
		Password: "s3cret",
		Database: "shop",
		Params:   map[string]string{"timeout": "5s", "sql_mode": "'ANSI'"},
	})
	require.NoError(t, err)

	c, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "tcp", c.Net)
	assert.Equal(t, "db.internal:3307", c.Addr)
	assert.Equal(t, "app", c.User)
	assert.Equal(t, "s3cret", c.Passwd)
	assert.Equal(t, "shop", c.DBName)
	assert.True(t, c.ParseTime)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, "'ANSI'", c.Params["sql_mode"])
}

func TestDSNDefaults(t *testing.T) {
	dsn, err := mysql.DSN(core.ConnConfig{User: "root"})
	require.NoError(t, err)

	c, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3306", c.Addr)

	dsn, err = mysql.DSN(core.ConnConfig{Host: "/var/run/mysqld/mysqld.sock", User: "root"})
	require.NoError(t, err)
	c, err = gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "unix", c.Net)
	assert.Equal(t, "/var/run/mysqld/mysqld.sock", c.Addr)
}

func TestDSNNativePassthrough(t *testing.T) {
	dsn, err := mysql.DSN(core.ConnConfig{DSN: "root:pw@tcp(10.0.0.5:3306)/app?parseTime=true"})
	require.NoError(t, err)

	c, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:3306", c.Addr)
	assert.Equal(t, "app", c.DBName)
	assert.True(t, c.ParseTime)
}

func TestDSNRejectsMalformedNative(t *testing.T) {
	_, err := mysql.DSN(core.ConnConfig{DSN: "root:hunter2@tcp(10.0.0.5:3306"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.NotContains(t, err.Error(), "hunter2")
}
