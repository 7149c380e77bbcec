package mysql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/catalog/catalogtest"
	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/mysql"
)

var row = catalogtest.Row

func ordersCatalog() *catalogtest.Querier {
	q := &catalogtest.Querier{}
	q.On("FROM information_schema.SCHEMATA", row("SCHEMA_NAME", "shop"))
	q.On("FROM information_schema.TABLES",
		row("TABLE_SCHEMA", "shop", "TABLE_NAME", "orders", "TABLE_COMMENT", "customer orders"))
	q.On("FROM information_schema.COLUMNS",
		row("COLUMN_NAME", "id", "DATA_TYPE", "bigint", "COLUMN_TYPE", "bigint unsigned", "IS_NULLABLE", "NO",
			"COLUMN_DEFAULT", nil, "EXTRA", "auto_increment", "COLUMN_COMMENT", "", "GENERATION_EXPRESSION", "", "ORDINAL_POSITION", 1),
		row("COLUMN_NAME", "status", "DATA_TYPE", "enum", "COLUMN_TYPE", "enum('new','paid','it''s')", "IS_NULLABLE", "NO",
			"COLUMN_DEFAULT", "new", "EXTRA", "", "COLUMN_COMMENT", "lifecycle", "GENERATION_EXPRESSION", "", "ORDINAL_POSITION", 2),
		row("COLUMN_NAME", "total", "DATA_TYPE", "decimal", "COLUMN_TYPE", "decimal(10,2)", "NUMERIC_PRECISION", 10, "NUMERIC_SCALE", 2,
			"IS_NULLABLE", "YES", "COLUMN_DEFAULT", nil, "EXTRA", "", "GENERATION_EXPRESSION", "", "ORDINAL_POSITION", 3),
		row("COLUMN_NAME", "total_cents", "DATA_TYPE", "bigint", "COLUMN_TYPE", "bigint", "IS_NULLABLE", "YES",
			"COLUMN_DEFAULT", nil, "EXTRA", "STORED GENERATED", "GENERATION_EXPRESSION", "(`total` * 100)", "ORDINAL_POSITION", 4),
		row("COLUMN_NAME", "created_at", "DATA_TYPE", "datetime", "COLUMN_TYPE", "datetime", "IS_NULLABLE", "NO",
			"COLUMN_DEFAULT", "CURRENT_TIMESTAMP", "EXTRA", "DEFAULT_GENERATED", "GENERATION_EXPRESSION", "", "ORDINAL_POSITION", 5),
		row("COLUMN_NAME", "customer_id", "DATA_TYPE", "bigint", "COLUMN_TYPE", "bigint unsigned", "IS_NULLABLE", "NO",
			"COLUMN_DEFAULT", nil, "EXTRA", "", "GENERATION_EXPRESSION", "", "ORDINAL_POSITION", 6),
	)
	q.On("CONSTRAINT_NAME = 'PRIMARY'", row("COLUMN_NAME", "id"))
	q.On("SHOW INDEX FROM",
		row("Key_name", "PRIMARY", "Column_name", "id", "Non_unique", 0, "Index_type", "BTREE"),
		row("Key_name", "idx_status_created", "Column_name", "status", "Non_unique", 1, "Index_type", "BTREE"),
		row("Key_name", "idx_status_created", "Column_name", "created_at", "Non_unique", 1, "Index_type", "BTREE"),
		row("Key_name", "uq_orders_customer", "Column_name", "customer_id", "Non_unique", 0, "Index_type", "HASH"),
	)
	q.On("REFERENCED_TABLE_NAME IS NOT NULL",
		row("CONSTRAINT_NAME", "fk_orders_customer", "COLUMN_NAME", "customer_id", "REFERENCED_TABLE_SCHEMA", "shop",
			"REFERENCED_TABLE_NAME", "customers", "REFERENCED_COLUMN_NAME", "id", "UPDATE_RULE", "NO ACTION", "DELETE_RULE", "SET NULL"),
	)
	q.Fail("CHECK_CONSTRAINTS", errors.New("Unknown table 'CHECK_CONSTRAINTS'"))
	return q
}

func TestIntrospectTable(t *testing.T) {
	in := mysql.NewIntrospector(ordersCatalog())

	def, err := in.Table(context.Background(), core.TableIdent{Schema: "shop", Table: "orders"})
	require.NoError(t, err)

	assert.Equal(t, "customer orders", def.Comment)
	require.Len(t, def.Columns, 6)

	id := def.Columns[0]
	assert.True(t, id.Unsigned)
	assert.True(t, id.AutoIncrement)
	assert.Equal(t, core.NotNull, id.Nullable)
	assert.Nil(t, id.DefaultValue)

	status := def.Columns[1]
	assert.Equal(t, "ENUM", status.DataType)
	assert.Equal(t, []string{"new", "paid", "it's"}, status.EnumValues)
	require.NotNil(t, status.DefaultValue)
	assert.Equal(t, "new", status.DefaultValue.Text())
	assert.Equal(t, "lifecycle", status.Comment)

	total := def.Columns[2]
	assert.Equal(t, 10, total.Precision)
	require.NotNil(t, total.Scale)
	assert.Equal(t, 2, *total.Scale)
	assert.Equal(t, core.Nullable, total.Nullable)

	cents := def.Columns[3]
	assert.Equal(t, "(`total` * 100)", cents.ComputedExpr)
	assert.True(t, cents.ComputedStored)

	created := def.Columns[4]
	assert.Equal(t, "CURRENT_TIMESTAMP", created.DefaultExpr)
	assert.Nil(t, created.DefaultValue)

	assert.Equal(t, &core.PrimaryKey{Columns: []string{"id"}}, def.PrimaryKey)
	assert.Equal(t, []core.IndexDef{
		{Name: "idx_status_created", Columns: []string{"status", "created_at"}},
		{Name: "uq_orders_customer", Columns: []string{"customer_id"}, Unique: true, Using: "HASH"},
	}, def.Indexes)
	assert.Equal(t, []core.ForeignKeyDef{{
		Name:       "fk_orders_customer",
		Columns:    []string{"customer_id"},
		RefSchema:  "shop",
		RefTable:   "customers",
		RefColumns: []string{"id"},
		OnUpdate:   core.FKNoAction,
		OnDelete:   core.FKSetNull,
	}}, def.ForeignKeys)
	assert.Empty(t, def.Checks)
}

func TestIntrospectTableDefaultsToCurrentDatabase(t *testing.T) {
	q := ordersCatalog()
	q.On("SELECT DATABASE()", row("db", "shop"))

	def, err := mysql.NewIntrospector(q).Table(context.Background(), core.TableIdent{Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, core.TableIdent{Schema: "shop", Table: "orders"}, def.Ident)
	assert.Equal(t, []any{"shop", "orders"}, q.Args("FROM information_schema.TABLES"))
}

func TestIntrospectMissingTable(t *testing.T) {
	q := &catalogtest.Querier{}
	q.On("FROM information_schema.TABLES")

	_, err := mysql.NewIntrospector(q).Table(context.Background(), core.TableIdent{Schema: "shop", Table: "nope"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSnapshotSkipsSystemSchemas(t *testing.T) {
	q := ordersCatalog()

	snap, err := mysql.NewIntrospector(q).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.MySQL, snap.Dialect)
	assert.Equal(t, []core.SchemaIdent{{Schema: "shop"}}, snap.Schemas)
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, "orders", snap.Tables[0].Ident.Table)
	assert.Equal(t, []any{"mysql", "information_schema", "performance_schema", "sys"}, q.Args("SCHEMATA"))
}

func TestShowCreateTable(t *testing.T) {
	q := &catalogtest.Querier{}
	q.On("SHOW CREATE TABLE `shop`.`orders`", row("Table", "orders", "Create Table", "CREATE TABLE `orders` (\n  `id` bigint\n)"))

	ddl, err := mysql.NewIntrospector(q).ShowCreateTable(context.Background(), core.TableIdent{Schema: "shop", Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `orders` (\n  `id` bigint\n)", ddl)
}
