package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/catalog/catalogtest"
	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect/oracle"
)

var row = catalogtest.Row

func employeesCatalog() *catalogtest.Querier {
	q := &catalogtest.Querier{}
	q.On("SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')", row("SCHEMA_NAME", "HR"))
	q.On("FROM all_users", row("SCHEMA_NAME", "HR"))
	q.On("DBMS_METADATA.GET_DDL", row("DDL", "\n  CREATE TABLE \"HR\".\"EMPLOYEES\" (\"ID\" NUMBER) \n"))
	q.On("FROM all_tables t",
		row("TABLE_SCHEMA", "HR", "TABLE_NAME", "EMPLOYEES", "TABLE_COMMENT", "staff"))
	q.On("FROM all_tab_cols c",
		row("COLUMN_NAME", "ID", "DATA_TYPE", "NUMBER", "DATA_LENGTH", 22, "CHAR_LENGTH", 0, "DATA_PRECISION", nil,
			"DATA_SCALE", 0, "NULLABLE", "N", "DATA_DEFAULT", `"HR"."ISEQ$$_73133".nextval`, "IDENTITY_COLUMN", "YES",
			"VIRTUAL_COLUMN", "NO", "COLUMN_ID", 1, "COLUMN_COMMENT", nil),
		row("COLUMN_NAME", "NAME", "DATA_TYPE", "VARCHAR2", "DATA_LENGTH", 400, "CHAR_LENGTH", 100, "DATA_PRECISION", nil,
			"DATA_SCALE", nil, "NULLABLE", "N", "DATA_DEFAULT", nil, "IDENTITY_COLUMN", "NO",
			"VIRTUAL_COLUMN", "NO", "COLUMN_ID", 2, "COLUMN_COMMENT", "full name"),
		row("COLUMN_NAME", "SALARY", "DATA_TYPE", "NUMBER", "DATA_LENGTH", 22, "CHAR_LENGTH", 0, "DATA_PRECISION", 10,
			"DATA_SCALE", 2, "NULLABLE", "Y", "DATA_DEFAULT", "0 ", "IDENTITY_COLUMN", "NO",
			"VIRTUAL_COLUMN", "NO", "COLUMN_ID", 3, "COLUMN_COMMENT", nil),
		row("COLUMN_NAME", "BONUS", "DATA_TYPE", "NUMBER", "DATA_LENGTH", 22, "CHAR_LENGTH", 0, "DATA_PRECISION", nil,
			"DATA_SCALE", nil, "NULLABLE", "Y", "DATA_DEFAULT", `"SALARY"*0.1`, "IDENTITY_COLUMN", "NO",
			"VIRTUAL_COLUMN", "YES", "COLUMN_ID", 4, "COLUMN_COMMENT", nil),
		row("COLUMN_NAME", "MANAGER_ID", "DATA_TYPE", "NUMBER", "DATA_LENGTH", 22, "CHAR_LENGTH", 0, "DATA_PRECISION", 19,
			"DATA_SCALE", 0, "NULLABLE", "Y", "DATA_DEFAULT", "NULL", "IDENTITY_COLUMN", "NO",
			"VIRTUAL_COLUMN", "NO", "COLUMN_ID", 5, "COLUMN_COMMENT", nil),
	)
	q.On("k.constraint_type = 'P' AND k.owner", row("CONSTRAINT_NAME", "PK_EMPLOYEES", "COLUMN_NAME", "ID"))
	q.On("FROM all_indexes i",
		row("INDEX_NAME", "IDX_EMP_MANAGER", "COLUMN_NAME", "MANAGER_ID", "UNIQUENESS", "NONUNIQUE", "INDEX_TYPE", "BITMAP"),
		row("INDEX_NAME", "UQ_EMP_NAME", "COLUMN_NAME", "NAME", "UNIQUENESS", "UNIQUE", "INDEX_TYPE", "NORMAL"),
	)
	q.On("c.constraint_type = 'R'",
		row("CONSTRAINT_NAME", "FK_EMP_MANAGER", "COLUMN_NAME", "MANAGER_ID", "REF_SCHEMA", "HR",
			"REF_TABLE", "EMPLOYEES", "REF_COLUMN", "ID", "DELETE_RULE", "SET NULL"),
	)
	q.On("constraint_type = 'C'",
		row("CONSTRAINT_NAME", "SYS_C008123", "EXPRESSION", `"NAME" IS NOT NULL`),
		row("CONSTRAINT_NAME", "CK_SALARY", "EXPRESSION", "salary >= 0"),
	)
	return q
}

func TestIntrospectTable(t *testing.T) {
	q := employeesCatalog()
	def, err := oracle.NewIntrospector(q).Table(context.Background(), core.TableIdent{Schema: "HR", Table: "EMPLOYEES"})
	require.NoError(t, err)

	assert.Equal(t, "staff", def.Comment)
	require.Len(t, def.Columns, 5)

	id := def.Columns[0]
	assert.True(t, id.AutoIncrement)
	assert.Empty(t, id.DefaultExpr)
	assert.Equal(t, core.NotNull, id.Nullable)
	assert.Zero(t, id.Precision)

	name := def.Columns[1]
	assert.Equal(t, "VARCHAR2", name.DataType)
	assert.Equal(t, 100, name.Length)
	assert.Equal(t, "full name", name.Comment)

	salary := def.Columns[2]
	assert.Equal(t, 10, salary.Precision)
	require.NotNil(t, salary.Scale)
	assert.Equal(t, 2, *salary.Scale)
	assert.Equal(t, "0", salary.DefaultExpr)

	assert.Equal(t, `"SALARY"*0.1`, def.Columns[3].ComputedExpr)
	assert.False(t, def.Columns[3].ComputedStored)
	assert.Empty(t, def.Columns[4].DefaultExpr)

	require.NotNil(t, def.PrimaryKey)
	assert.Equal(t, "PK_EMPLOYEES", def.PrimaryKey.Name)

	assert.Equal(t, []core.IndexDef{
		{Name: "IDX_EMP_MANAGER", Columns: []string{"MANAGER_ID"}, Using: "BITMAP"},
		{Name: "UQ_EMP_NAME", Columns: []string{"NAME"}, Unique: true},
	}, def.Indexes)

	require.Len(t, def.ForeignKeys, 1)
	assert.Equal(t, core.FKSetNull, def.ForeignKeys[0].OnDelete)
	assert.Equal(t, "HR", def.ForeignKeys[0].RefSchema)

	assert.Equal(t, []core.CheckDef{{Name: "CK_SALARY", Expression: "salary >= 0"}}, def.Checks)
	assert.Equal(t, []any{"HR", "EMPLOYEES"}, q.Args("FROM all_tab_cols c"))
}

func TestIntrospectCurrentSchema(t *testing.T) {
	q := employeesCatalog()
	def, err := oracle.NewIntrospector(q).Table(context.Background(), core.TableIdent{Table: "EMPLOYEES"})
	require.NoError(t, err)
	assert.Equal(t, "HR", def.Ident.Schema)
}

func TestShowCreateTable(t *testing.T) {
	q := employeesCatalog()
	ddl, err := oracle.NewIntrospector(q).ShowCreateTable(context.Background(), core.TableIdent{Schema: "HR", Table: "EMPLOYEES"})
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "HR"."EMPLOYEES" ("ID" NUMBER)`, ddl)
	assert.Equal(t, []any{"EMPLOYEES", "HR"}, q.Args("DBMS_METADATA.GET_DDL"))
}

func TestShowCreateMissingTable(t *testing.T) {
	q := &catalogtest.Querier{}
	q.On("FROM all_tables t")
	_, err := oracle.NewIntrospector(q).ShowCreateTable(context.Background(), core.TableIdent{Schema: "HR", Table: "NOPE"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSnapshot(t *testing.T) {
	q := employeesCatalog()
	snap, err := oracle.NewIntrospector(q).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Oracle, snap.Dialect)
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, "EMPLOYEES", snap.Tables[0].Ident.Table)
	assert.Contains(t, q.Queries()[0], "oracle_maintained = 'N'")
}
