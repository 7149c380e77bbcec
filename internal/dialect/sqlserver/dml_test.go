package sqlserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/sqlserver"
)

func TestInsertPlaceholders(t *testing.T) {
	dml := sqlserver.DML{}
	assert.Equal(t, "@p1", dml.Placeholder(0))
	assert.Equal(t, "INSERT INTO [dbo].[t] ([a], [b]) VALUES (@p1, @p2)", dml.Insert(core.TableIdent{Schema: "dbo", Table: "t"}, []string{"a", "b"}))
}

func TestPaginateAddsOrderOnlyWhenMissing(t *testing.T) {
	dml := sqlserver.DML{}
	assert.Equal(t, "SELECT * FROM t ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 1000 ROWS ONLY", dml.Paginate("SELECT * FROM t;", 1000, 0))
	assert.Equal(t, "SELECT * FROM t ORDER BY id OFFSET 2000 ROWS FETCH NEXT 1000 ROWS ONLY", dml.Paginate("SELECT * FROM t ORDER BY id", 1000, 2000))
	assert.Equal(t,
		"SELECT ROW_NUMBER() OVER (ORDER BY id) AS rn FROM t ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY",
		dml.Paginate("SELECT ROW_NUMBER() OVER (ORDER BY id) AS rn FROM t", 10, 0))
}

func TestUpsertMerge(t *testing.T) {
	stmt, err := sqlserver.DML{}.Upsert(core.TableIdent{Schema: "dbo", Table: "users"},
		map[string]any{"name": "a", "id": 1, "email": "a@example.com"}, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, "MERGE INTO [dbo].[users] WITH (HOLDLOCK) AS t "+
		"USING (VALUES (@p1, @p2, @p3)) AS s ([email], [id], [name]) ON t.[id] = s.[id] "+
		"WHEN MATCHED THEN UPDATE SET t.[email] = s.[email], t.[name] = s.[name] "+
		"WHEN NOT MATCHED THEN INSERT ([email], [id], [name]) VALUES (s.[email], s.[id], s.[name]) "+
		"OUTPUT inserted.[id];", stmt.SQL)
	assert.Equal(t, []any{"a@example.com", 1, "a"}, stmt.Args)
}

func TestUpsertOnlyKeys(t *testing.T) {
	stmt, err := sqlserver.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, []string{"tag"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "MERGE INTO [tags] WITH (HOLDLOCK) AS t USING (VALUES (@p1)) AS s ([tag]) ON t.[tag] = s.[tag] "+
		"WHEN NOT MATCHED THEN INSERT ([tag]) VALUES (s.[tag]);", stmt.SQL)

	_, err = sqlserver.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, []string{"id"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestDCL(t *testing.T) {
	dcl := sqlserver.DCL{}
	assert.Equal(t, "CREATE LOGIN [app] WITH PASSWORD = N'p''w';\nCREATE USER [app] FOR LOGIN [app]",
		dcl.CreateUser("app", core.UserOptions{Password: "p'w"}))
	assert.Equal(t, "IF NOT EXISTS (SELECT 1 FROM sys.database_principals WHERE name = N'svc') CREATE USER [svc] WITHOUT LOGIN",
		dcl.CreateUser("svc", core.UserOptions{IfNotExists: true}))
	assert.Equal(t, "DROP USER [app];\nIF EXISTS (SELECT 1 FROM sys.server_principals WHERE name = N'app') DROP LOGIN [app]",
		dcl.DropUser("app", "", core.DropOptions{MustExist: true}))
	assert.Equal(t, "CREATE ROLE [reader]", dcl.CreateRole("reader"))

	grant, err := dcl.Grant([]string{"select", "insert"}, core.GrantTarget{Schema: "sales", Database: "shop"}, "reader")
	require.NoError(t, err)
	assert.Equal(t, "GRANT SELECT, INSERT ON SCHEMA::[sales] TO [reader]", grant)

	grant, err = dcl.Grant([]string{"select"}, core.GrantTarget{Table: &core.TableIdent{Schema: "sales", Table: "orders"}}, "reader")
	require.NoError(t, err)
	assert.Equal(t, "GRANT SELECT ON OBJECT::[sales].[orders] TO [reader]", grant)

	revoke, err := dcl.Revoke([]string{"create table"}, core.GrantTarget{}, "reader")
	require.NoError(t, err)
	assert.Equal(t, "REVOKE CREATE TABLE FROM [reader]", revoke)

	_, err = dcl.Grant([]string{"select; drop table x"}, core.GrantTarget{}, "reader")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTCL(t *testing.T) {
	tcl := sqlserver.TCL{}
	assert.Equal(t, "BEGIN TRANSACTION", tcl.Begin())
	assert.Equal(t, "SAVE TRANSACTION [sp]", tcl.Savepoint("sp"))
	assert.Empty(t, tcl.ReleaseSavepoint("sp"))

	long := "sp_0123456789abcdef0123456789abcdef"
	assert.Equal(t, "SAVE TRANSACTION [sp_0123456789abcdef0123456789abc]", tcl.Savepoint(long))
	assert.Equal(t, "ROLLBACK TRANSACTION [sp_0123456789abcdef0123456789abc]", tcl.RollbackTo(long))

	s, err := tcl.SetIsolation(core.RepeatableRead)
	require.NoError(t, err)
	assert.Equal(t, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ", s)
}
