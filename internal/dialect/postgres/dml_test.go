package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/postgres"
)

func TestPlaceholderIsOneBased(t *testing.T) {
	dml := postgres.DML{}
	assert.Equal(t, "$1", dml.Placeholder(0))
	assert.Equal(t, "$12", dml.Placeholder(11))
	assert.Equal(t, `INSERT INTO "t" ("a", "b", "c") VALUES ($1, $2, $3)`, dml.Insert(core.TableIdent{Table: "t"}, []string{"a", "b", "c"}))
}

func TestUpsert(t *testing.T) {
	stmt, err := postgres.DML{}.Upsert(core.TableIdent{Table: "users"},
		map[string]any{"name": "a", "id": 1, "email": "a@example.com"}, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "users" ("email", "id", "name") VALUES ($1, $2, $3) `+
		`ON CONFLICT ("id") DO UPDATE SET "email" = EXCLUDED."email", "name" = EXCLUDED."name" RETURNING "id"`, stmt.SQL)
	assert.NotContains(t, stmt.SQL, `"id" = EXCLUDED`)
	assert.Equal(t, []any{"a@example.com", 1, "a"}, stmt.Args)
}

func TestUpsertOnlyKeysDoesNothing(t *testing.T) {
	stmt, err := postgres.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, []string{"tag"}, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "tags" ("tag") VALUES ($1) ON CONFLICT ("tag") DO NOTHING`, stmt.SQL)

	_, err = postgres.DML{}.Upsert(core.TableIdent{Table: "tags"}, map[string]any{"tag": "go"}, nil, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestPaginate(t *testing.T) {
	assert.Equal(t, "SELECT 1 LIMIT 10 OFFSET 20", postgres.DML{}.Paginate("SELECT 1;", 10, 20))
}

func TestDCL(t *testing.T) {
	dcl := postgres.DCL{}
	assert.Equal(t, `CREATE USER "app" WITH PASSWORD 'pw'`, dcl.CreateUser("app", core.UserOptions{Password: "pw", Host: "ignored"}))
	assert.Equal(t, `DO $$ BEGIN CREATE USER "app"; EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		dcl.CreateUser("app", core.UserOptions{IfNotExists: true}))
	assert.Equal(t, `DROP ROLE IF EXISTS "reader"`, dcl.DropRole("reader", core.DropOptions{}))

	grant, err := dcl.Grant([]string{"select"}, core.GrantTarget{Schema: "app", Database: "shop"}, "reader")
	require.NoError(t, err)
	assert.Equal(t, `GRANT SELECT ON ALL TABLES IN SCHEMA "app" TO "reader"`, grant)

	grant, err = dcl.Grant([]string{"connect"}, core.GrantTarget{Database: "shop"}, "public")
	require.NoError(t, err)
	assert.Equal(t, `GRANT CONNECT ON DATABASE "shop" TO PUBLIC`, grant)

	revoke, err := dcl.Revoke([]string{"update"}, core.GrantTarget{Table: &core.TableIdent{Schema: "app", Table: "users"}}, "reader")
	require.NoError(t, err)
	assert.Equal(t, `REVOKE UPDATE ON TABLE "app"."users" FROM "reader"`, revoke)
}

func TestTCL(t *testing.T) {
	tcl := postgres.TCL{}
	assert.Equal(t, "BEGIN", tcl.Begin())
	assert.Equal(t, `RELEASE SAVEPOINT "sp"`, tcl.ReleaseSavepoint("sp"))
	s, err := tcl.SetIsolation(core.Serializable)
	require.NoError(t, err)
	assert.Equal(t, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE", s)
}
