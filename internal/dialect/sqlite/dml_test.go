package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/sqlite"
)

func TestInsertAndPaginate(t *testing.T) {
	dml := sqlite.DML{}
	assert.Equal(t, "?", dml.Placeholder(7))
	assert.Equal(t, `INSERT INTO "main"."t" ("a", "b") VALUES (?, ?)`, dml.Insert(core.TableIdent{Schema: "main", Table: "t"}, []string{"a", "b"}))
	assert.Equal(t, "SELECT * FROM t LIMIT 5 OFFSET 0", dml.Paginate("SELECT * FROM t ;", 5, 0))
}

func TestUpsert(t *testing.T) {
	stmt, err := sqlite.DML{}.Upsert(core.TableIdent{Table: "users"},
		map[string]any{"id": 1, "name": "a"}, []string{"id"}, []string{"id", "name"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES (?, ?) `+
		`ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name" RETURNING "id", "name"`, stmt.SQL)
	assert.Equal(t, []any{1, "a"}, stmt.Args)

	stmt, err = sqlite.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, []string{"tag"}, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "tags" ("tag") VALUES (?) ON CONFLICT ("tag") DO NOTHING`, stmt.SQL)

	_, err = sqlite.DML{}.Upsert(core.TableIdent{Table: "tags"}, nil, []string{"tag"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestDCLIsUnsupported(t *testing.T) {
	dcl := sqlite.DCL{}
	assert.Empty(t, dcl.CreateUser("app", core.UserOptions{}))
	assert.Empty(t, dcl.DropRole("r", core.DropOptions{}))
	_, err := dcl.Grant([]string{"select"}, core.GrantTarget{}, "app")
	assert.ErrorIs(t, err, core.ErrUnsupported)
	_, err = dcl.Revoke([]string{"select"}, core.GrantTarget{}, "app")
	assert.ErrorIs(t, err, core.ErrUnsupported)
}

func TestTCL(t *testing.T) {
	tcl := sqlite.TCL{}
	assert.Equal(t, `SAVEPOINT "sp"`, tcl.Savepoint("sp"))
	assert.Equal(t, `ROLLBACK TO SAVEPOINT "sp"`, tcl.RollbackTo("sp"))

	s, err := tcl.SetIsolation(core.ReadUncommitted)
	require.NoError(t, err)
	assert.Equal(t, "PRAGMA read_uncommitted = 1", s)

	_, err = tcl.SetIsolation(core.RepeatableRead)
	assert.ErrorIs(t, err, core.ErrUnsupported)
}
