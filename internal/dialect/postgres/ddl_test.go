package postgres_test

import (
	"math"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/postgres"
)

func categoryTable() core.TableDef {
	status := core.StringValue("new")
	return core.TableDef{
		Ident: core.TableIdent{Schema: "app", Table: "category"},
		Columns: []core.ColumnDef{
			{Name: "tenant_id", DataType: "INTEGER", Nullable: core.NotNull},
			{Name: "id", DataType: "BIGINT", Nullable: core.NotNull, AutoIncrement: true},
			{Name: "parent_id", DataType: "BIGINT", Nullable: core.Nullable},
			{Name: "slug", DataType: "VARCHAR", Length: 64, Nullable: core.NotNull},
			{Name: "status", DataType: "ENUM", EnumValues: []string{"new", "done"}, Nullable: core.NotNull, DefaultValue: &status},
			{Name: "created_at", DataType: "TIMESTAMP", Nullable: core.NotNull, DefaultExpr: "now()", Comment: "row creation"},
		},
		PrimaryKey: &core.PrimaryKey{Columns: []string{"tenant_id", "id"}},
		Indexes: []core.IndexDef{
			{Name: "uq_category_slug", Columns: []string{"tenant_id", "slug"}, Unique: true},
			{Name: "idx_category_parent", Columns: []string{"tenant_id", "parent_id"}},
		},
		ForeignKeys: []core.ForeignKeyDef{{
			Columns:    []string{"tenant_id", "parent_id"},
			RefTable:   "category",
			RefColumns: []string{"tenant_id", "id"},
			OnDelete:   core.FKCascade,
		}},
		Comment: "tree",
	}
}

func TestCreateTable(t *testing.T) {
	want := `CREATE TABLE "app"."category" (
  "tenant_id" INTEGER NOT NULL,
  "id" BIGINT GENERATED BY DEFAULT AS IDENTITY NOT NULL,
  "parent_id" BIGINT NULL,
  "slug" VARCHAR(64) NOT NULL,
  "status" TEXT NOT NULL DEFAULT 'new' CHECK ("status" IN ('new', 'done')),
  "created_at" TIMESTAMP NOT NULL DEFAULT now(),
  PRIMARY KEY ("tenant_id", "id"),
  CONSTRAINT "uq_category_slug" UNIQUE ("tenant_id", "slug"),
  CONSTRAINT "fk_category_tenant_id_parent_id" FOREIGN KEY ("tenant_id", "parent_id") REFERENCES "app"."category" ("tenant_id", "id") ON DELETE CASCADE
);
CREATE INDEX "idx_category_parent" ON "app"."category" ("tenant_id", "parent_id");
COMMENT ON TABLE "app"."category" IS 'tree';
COMMENT ON COLUMN "app"."category"."created_at" IS 'row creation'`

	first, err := postgres.DDL{}.CreateTable(categoryTable(), core.CreateTableOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, first)

	second, err := postgres.DDL{}.CreateTable(categoryTable(), core.CreateTableOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateTableRejectsVirtualColumns(t *testing.T) {
	def := core.TableDef{
		Ident:   core.TableIdent{Table: "t"},
		Columns: []core.ColumnDef{{Name: "a", DataType: "INT"}, {Name: "b", DataType: "INT", ComputedExpr: "a * 2"}},
	}
	_, err := postgres.DDL{}.CreateTable(def, core.CreateTableOptions{})
	assert.ErrorIs(t, err, core.ErrUnsupported)

	def.Columns[1].ComputedStored = true
	got, err := postgres.DDL{}.CreateTable(def, core.CreateTableOptions{IfNotExists: true})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"t\" (\n  \"a\" INT,\n  \"b\" INT GENERATED ALWAYS AS (a * 2) STORED\n)", got)
}

func TestNonFiniteDefaultIsRejected(t *testing.T) {
	nan := core.FloatValue(math.NaN())
	def := core.TableDef{
		Ident:   core.TableIdent{Table: "t"},
		Columns: []core.ColumnDef{{Name: "ratio", DataType: "DOUBLE PRECISION", DefaultValue: &nan}},
	}
	_, err := postgres.DDL{}.CreateTable(def, core.CreateTableOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = postgres.DDL{}.AlterTable(core.TableIdent{Table: "t"}, core.AlterTableCommand{
		AlterColumns: []core.AlterColumn{{ColumnDef: core.ColumnDef{Name: "ratio", DefaultValue: &nan}}},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestQuoteIdentMatchesDriver(t *testing.T) {
	for _, name := range []string{"users", `we"ird`, "MixedCase", `""`} {
		assert.Equal(t, pq.QuoteIdentifier(name), postgres.DDL{}.QuoteIdent(name), name)
	}
}

func TestAlterTable(t *testing.T) {
	empty := ""
	users := core.TableIdent{Schema: "app", Table: "users"}
	stmts, err := postgres.DDL{}.AlterTable(users, core.AlterTableCommand{
		DropPrimaryKey: true,
		SetPrimaryKey:  &core.PrimaryKey{Columns: []string{"id", "tenant_id"}},
		AlterColumns: []core.AlterColumn{{
			ColumnDef: core.ColumnDef{Name: "full_name", DataType: "TEXT", Nullable: core.NotNull, DefaultExpr: "''"},
			OldName:   "name",
		}},
		AddIndexes:  []core.IndexDef{{Name: "idx_active", Columns: []string{"email"}, Where: "deleted_at IS NULL", Using: "HASH"}},
		DropIndexes: []string{"idx_old"},
		DropChecks:  []string{"ck_age"},
		SetComment:  &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "app"."users" DROP CONSTRAINT "ck_age"`,
		`DROP INDEX "app"."idx_old"`,
		`ALTER TABLE "app"."users" DROP CONSTRAINT "users_pkey"`,
		`ALTER TABLE "app"."users" RENAME COLUMN "name" TO "full_name"`,
		`ALTER TABLE "app"."users" ALTER COLUMN "full_name" TYPE TEXT`,
		`ALTER TABLE "app"."users" ALTER COLUMN "full_name" SET NOT NULL`,
		`ALTER TABLE "app"."users" ALTER COLUMN "full_name" SET DEFAULT ''`,
		`ALTER TABLE "app"."users" ADD PRIMARY KEY ("id", "tenant_id")`,
		`CREATE INDEX "idx_active" ON "app"."users" USING hash ("email") WHERE deleted_at IS NULL`,
		`COMMENT ON TABLE "app"."users" IS NULL`,
	}, stmts)
}

func TestDropAndMisc(t *testing.T) {
	ddl := postgres.DDL{}
	users := core.TableIdent{Table: "users"}

	assert.Equal(t, `DROP TABLE IF EXISTS "users" CASCADE`, ddl.DropTable(users, core.DropOptions{Cascade: true}))
	assert.Equal(t, `DROP TABLE "users"`, ddl.DropTable(users, core.DropOptions{MustExist: true}))
	assert.Equal(t, `DROP INDEX IF EXISTS "idx"`, ddl.DropIndex(users, "idx", core.DropOptions{}))
	assert.Equal(t, `TRUNCATE TABLE "users" CASCADE`, ddl.TruncateTable(users))
	assert.Equal(t, "SET session_replication_role = 'replica'", ddl.ForeignKeyChecks(false))
	assert.Equal(t, "SET session_replication_role = 'origin'", ddl.ForeignKeyChecks(true))
}
