package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/sqlite"
)

func categoryTable() core.TableDef {
	status := core.StringValue("new")
	return core.TableDef{
		Ident: core.TableIdent{Table: "category"},
		Columns: []core.ColumnDef{
			{Name: "id", DataType: "BIGINT", Nullable: core.NotNull, AutoIncrement: true},
			{Name: "parent_id", DataType: "BIGINT", Nullable: core.Nullable},
			{Name: "slug", DataType: "VARCHAR", Length: 64, Nullable: core.NotNull},
			{Name: "slug_upper", DataType: "TEXT", ComputedExpr: "upper(slug)"},
			{Name: "status", DataType: "ENUM", EnumValues: []string{"new", "done"}, Nullable: core.NotNull, DefaultValue: &status},
			{Name: "score", DataType: "INTEGER", DefaultExpr: "abs(-1)"},
			{Name: "created_at", DataType: "TIMESTAMP", Nullable: core.NotNull, DefaultExpr: "CURRENT_TIMESTAMP", Comment: "dropped"},
		},
		PrimaryKey: &core.PrimaryKey{Columns: []string{"id"}},
		Indexes: []core.IndexDef{
			{Name: "uq_category_slug", Columns: []string{"slug"}, Unique: true},
			{Name: "idx_category_parent", Columns: []string{"parent_id"}, Where: "parent_id IS NOT NULL"},
		},
		ForeignKeys: []core.ForeignKeyDef{{
			Columns:    []string{"parent_id"},
			RefTable:   "category",
			RefColumns: []string{"id"},
			OnDelete:   core.FKCascade,
		}},
		Checks:  []core.CheckDef{{Name: "ck_score", Expression: "score >= 0"}},
		Comment: "tree",
	}
}

func TestCreateTable(t *testing.T) {
	want := `CREATE TABLE "category" (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
  "parent_id" BIGINT NULL,
  "slug" VARCHAR(64) NOT NULL,
  "slug_upper" TEXT GENERATED ALWAYS AS (upper(slug)) VIRTUAL,
  "status" TEXT NOT NULL DEFAULT 'new' CHECK ("status" IN ('new', 'done')),
  "score" INTEGER DEFAULT (abs(-1)),
  "created_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  CONSTRAINT "ck_score" CHECK (score >= 0),
  CONSTRAINT "fk_category_parent_id" FOREIGN KEY ("parent_id") REFERENCES "category" ("id") ON DELETE CASCADE
);
CREATE UNIQUE INDEX "uq_category_slug" ON "category" ("slug");
CREATE INDEX "idx_category_parent" ON "category" ("parent_id") WHERE parent_id IS NOT NULL`

	got, err := sqlite.DDL{}.CreateTable(categoryTable(), core.CreateTableOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateTableInAttachedSchema(t *testing.T) {
	def := categoryTable()
	def.Ident.Schema = "aux"
	got, err := sqlite.DDL{}.CreateTable(def, core.CreateTableOptions{IfNotExists: true})
	require.NoError(t, err)
	assert.Contains(t, got, `CREATE TABLE IF NOT EXISTS "aux"."category" (`)
	assert.Contains(t, got, `REFERENCES "category" ("id")`)
	assert.Contains(t, got, `CREATE UNIQUE INDEX IF NOT EXISTS "aux"."uq_category_slug" ON "category" ("slug")`)
}

func TestCreateTableCompositeKey(t *testing.T) {
	def := core.TableDef{
		Ident: core.TableIdent{Table: "link"},
		Columns: []core.ColumnDef{
			{Name: "a", DataType: "INTEGER", Nullable: core.NotNull},
			{Name: "b", DataType: "INTEGER", Nullable: core.NotNull, DefaultExpr: "-1"},
			{Name: "c", DataType: "TEXT", DefaultExpr: "'x'"},
		},
		PrimaryKey: &core.PrimaryKey{Columns: []string{"a", "b"}},
	}
	got, err := sqlite.DDL{}.CreateTable(def, core.CreateTableOptions{})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE \"link\" (\n  \"a\" INTEGER NOT NULL,\n  \"b\" INTEGER NOT NULL DEFAULT -1,\n  \"c\" TEXT DEFAULT 'x',\n  PRIMARY KEY (\"a\", \"b\")\n)", got)
}

func TestCreateTableRejectsAutoIncrementOutsideKey(t *testing.T) {
	def := core.TableDef{
		Ident: core.TableIdent{Table: "t"},
		Columns: []core.ColumnDef{
			{Name: "a", DataType: "INTEGER", AutoIncrement: true},
			{Name: "b", DataType: "INTEGER"},
		},
		PrimaryKey: &core.PrimaryKey{Columns: []string{"a", "b"}},
	}
	_, err := sqlite.DDL{}.CreateTable(def, core.CreateTableOptions{})
	assert.ErrorIs(t, err, core.ErrUnsupported)

	def.Columns[1].DataType = ""
	_, err = sqlite.DDL{}.CreateTable(def, core.CreateTableOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAlterTable(t *testing.T) {
	ddl := sqlite.DDL{}
	tbl := core.TableIdent{Table: "category"}

	stmts, err := ddl.AlterTable(tbl, core.AlterTableCommand{
		AddColumns:   []core.ColumnDef{{Name: "note", DataType: "TEXT"}},
		AlterColumns: []core.AlterColumn{{ColumnDef: core.ColumnDef{Name: "handle"}, OldName: "slug"}},
		DropColumns:  []string{"score"},
		AddIndexes:   []core.IndexDef{{Name: "idx_note", Columns: []string{"note"}}},
		DropIndexes:  []string{"idx_category_parent"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`DROP INDEX "idx_category_parent"`,
		`ALTER TABLE "category" ADD COLUMN "note" TEXT`,
		`ALTER TABLE "category" RENAME COLUMN "slug" TO "handle"`,
		`CREATE INDEX "idx_note" ON "category" ("note")`,
		`ALTER TABLE "category" DROP COLUMN "score"`,
	}, stmts)

	comment := "x"
	for _, cmd := range []core.AlterTableCommand{
		{DropPrimaryKey: true},
		{AddChecks: []core.CheckDef{{Expression: "1 = 1"}}},
		{DropForeignKeys: []string{"fk"}},
		{SetComment: &comment},
		{AlterColumns: []core.AlterColumn{{ColumnDef: core.ColumnDef{Name: "slug", DataType: "TEXT"}}}},
		{AddColumns: []core.ColumnDef{{Name: "n", DataType: "INTEGER", AutoIncrement: true}}},
	} {
		_, err := ddl.AlterTable(tbl, cmd)
		assert.ErrorIs(t, err, core.ErrUnsupported)
	}
}

func TestDropAndMisc(t *testing.T) {
	ddl := sqlite.DDL{}
	tbl := core.TableIdent{Schema: "main", Table: "category"}

	assert.Equal(t, `DROP TABLE IF EXISTS "main"."category"`, ddl.DropTable(tbl, core.DropOptions{Cascade: true}))
	assert.Equal(t, `DROP TABLE "main"."category"`, ddl.DropTable(tbl, core.DropOptions{MustExist: true}))
	assert.Equal(t, `DELETE FROM "main"."category"`, ddl.TruncateTable(tbl))
	assert.Equal(t, `DROP INDEX IF EXISTS "main"."idx"`, ddl.DropIndex(tbl, "idx", core.DropOptions{}))
	assert.Equal(t, "PRAGMA foreign_keys = OFF", ddl.ForeignKeyChecks(false))
	assert.Equal(t, "PRAGMA foreign_keys = ON", ddl.ForeignKeyChecks(true))

	_, err := ddl.CreateIndex(tbl, core.IndexDef{Name: "idx", Columns: []string{"a"}, Using: "HASH"}, false)
	assert.ErrorIs(t, err, core.ErrUnsupported)

	view, err := ddl.CreateView(core.SchemaIdent{}, core.ViewDef{Name: "v", Definition: "SELECT 1;"}, true)
	require.NoError(t, err)
	assert.Equal(t, "DROP VIEW IF EXISTS \"v\";\nCREATE VIEW \"v\" AS SELECT 1", view)

	_, err = ddl.CreateView(core.SchemaIdent{}, core.ViewDef{Name: "v"}, false)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, `DROP VIEW IF EXISTS "v"`, ddl.DropView(core.SchemaIdent{}, "v", core.DropOptions{}))
}
