package mysql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/mysql"
)

func TestUpsertExcludesConflictKey(t *testing.T) {
	stmt, err := mysql.DML{}.Upsert(core.TableIdent{Table: "users"}, map[string]any{"name": "a", "id": 1}, []string{"id"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)", stmt.SQL)
	assert.NotContains(t, stmt.SQL, "`id` = VALUES")
	assert.Equal(t, []any{1, "a"}, stmt.Args)
}

func TestUpsertOnlyKeys(t *testing.T) {
	stmt, err := mysql.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, []string{"tag"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `tags` (`tag`) VALUES (?) ON DUPLICATE KEY UPDATE `tag` = `tag`", stmt.SQL)
}

func TestUpsertErrors(t *testing.T) {
	_, err := mysql.DML{}.Upsert(core.TableIdent{Table: "t"}, nil, []string{"id"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = mysql.DML{}.Upsert(core.TableIdent{Table: "t"}, map[string]any{"id": 1}, []string{"id"}, []string{"id"})
	assert.ErrorIs(t, err, core.ErrUnsupported)
}

func TestInsertAndPaginate(t *testing.T) {
	dml := mysql.DML{}
	assert.Equal(t, "INSERT INTO `app`.`t` (`a`, `b`) VALUES (?, ?)", dml.Insert(core.TableIdent{Schema: "app", Table: "t"}, []string{"a", "b"}))
	assert.Equal(t, "SELECT * FROM t ORDER BY id LIMIT 1000 OFFSET 2000", dml.Paginate("SELECT * FROM t ORDER BY id;\n", 1000, 2000))
	assert.Equal(t, "?", dml.Placeholder(7))
}

func TestDCL(t *testing.T) {
	dcl := mysql.DCL{}
	assert.Equal(t, "CREATE USER IF NOT EXISTS 'app'@'%' IDENTIFIED BY 'p''w'",
		dcl.CreateUser("app", core.UserOptions{Password: "p'w", IfNotExists: true}))
	assert.Equal(t, "DROP USER IF EXISTS 'app'@'localhost'", dcl.DropUser("app", "localhost", core.DropOptions{}))
	assert.Equal(t, "CREATE ROLE `reader`", dcl.CreateRole("reader"))

	tests := []struct {
		on   core.GrantTarget
		want string
	}{
		{core.GrantTarget{Table: &core.TableIdent{Schema: "shop", Table: "orders"}, Database: "ignored"}, "GRANT SELECT, INSERT ON `shop`.`orders` TO 'app'@'10.0.0.1'"},
		{core.GrantTarget{Schema: "shop", Database: "ignored"}, "GRANT SELECT, INSERT ON `shop`.* TO 'app'@'10.0.0.1'"},
		{core.GrantTarget{Database: "shop"}, "GRANT SELECT, INSERT ON `shop`.* TO 'app'@'10.0.0.1'"},
		{core.GrantTarget{}, "GRANT SELECT, INSERT ON *.* TO 'app'@'10.0.0.1'"},
	}
	for _, tt := range tests {
		got, err := dcl.Grant([]string{"select", "Insert"}, tt.on, "app@10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	revoke, err := dcl.Revoke([]string{"ALL PRIVILEGES"}, core.GrantTarget{Database: "shop"}, "app")
	require.NoError(t, err)
	assert.Equal(t, "REVOKE ALL PRIVILEGES ON `shop`.* FROM 'app'@'%'", revoke)

	_, err = dcl.Grant([]string{"SELECT; DROP TABLE x"}, core.GrantTarget{}, "app")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTCL(t *testing.T) {
	tcl := mysql.TCL{}
	assert.Equal(t, "START TRANSACTION", tcl.Begin())
	assert.Equal(t, "SAVEPOINT `sp1`", tcl.Savepoint("sp1"))
	assert.Equal(t, "ROLLBACK TO SAVEPOINT `sp1`", tcl.RollbackTo("sp1"))
	assert.Equal(t, "RELEASE SAVEPOINT `sp1`", tcl.ReleaseSavepoint("sp1"))

	s, err := tcl.SetIsolation(core.RepeatableRead)
	require.NoError(t, err)
	assert.Equal(t, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ", s)

	_, err = tcl.SetIsolation("snapshot")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
