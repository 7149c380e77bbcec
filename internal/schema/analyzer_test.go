package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/schema"
)

func names(tables []*schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name()
	}
	return out
}

func table(name string, deps ...string) *schema.Table {
	return &schema.Table{Def: core.TableDef{Ident: core.TableIdent{Table: name}}, Dependencies: deps}
}

func TestSortTablesByFKCountComplexCircular(t *testing.T) {
	// A -> B -> C -> D -> E -> A is a cycle, F -> E hangs off it, G stands alone.
	tables := []*schema.Table{
		table("A", "B"),
		table("B", "C"),
		table("C", "D"),
		table("D", "E"),
		table("E", "A"),
		table("F", "E"),
		table("G"),
	}

	sorted := schema.SortTablesByFKCount(tables)

	require.Len(t, sorted, len(tables))
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E", "F", "G"}, names(sorted))
	assert.Equal(t, "G", sorted[0].Name())

	pos := map[string]int{}
	for i, n := range names(sorted) {
		pos[n] = i
	}
	assert.Less(t, pos["E"], pos["F"])
}

func TestSortTablesByFKCountSimple(t *testing.T) {
	tables := []*schema.Table{
		table("order_items", "orders"),
		table("orders", "users"),
		table("users"),
	}

	sorted := schema.SortTablesByFKCount(tables)

	assert.Equal(t, []string{"users", "orders", "order_items"}, names(sorted))
}

func TestSortTablesByFKCountPrefersTwoTableCycle(t *testing.T) {
	// staff <-> store reference each other; rental needs both.
	tables := []*schema.Table{
		table("rental", "staff", "store"),
		table("staff", "store"),
		table("store", "staff"),
	}

	sorted := schema.SortTablesByFKCount(tables)

	assert.Equal(t, []string{"staff", "store", "rental"}, names(sorted))
}

func TestFromSnapshot(t *testing.T) {
	snap := &core.SchemaSnapshot{
		Dialect: core.PostgreSQL,
		Tables: []core.TableDef{
			{
				Ident: core.TableIdent{Schema: "shop", Table: "orders"},
				Columns: []core.ColumnDef{
					{Name: "id", DataType: "integer", AutoIncrement: true, Nullable: core.NotNull},
					{Name: "user_id", DataType: "integer", Nullable: core.NotNull},
					{Name: "parent_id", DataType: "integer", Nullable: core.Nullable},
					{Name: "reg_dt", DataType: "timestamp"},
				},
				PrimaryKey: &core.PrimaryKey{Columns: []string{"id"}},
				ForeignKeys: []core.ForeignKeyDef{
					{Columns: []string{"user_id"}, RefTable: "USERS", RefColumns: []string{"id"}},
					{Columns: []string{"parent_id"}, RefTable: "orders", RefColumns: []string{"id"}},
					{Columns: []string{"user_id"}, RefSchema: "billing", RefTable: "accounts", RefColumns: []string{"id"}},
				},
			},
			{
				Ident: core.TableIdent{Schema: "shop", Table: "users"},
				Columns: []core.ColumnDef{
					{Name: "id", DataType: "integer", Nullable: core.NotNull},
					{Name: "email", DataType: "varchar", Length: 120, Comment: "E-mail of the account"},
				},
				PrimaryKey: &core.PrimaryKey{Columns: []string{"id"}},
				Indexes:    []core.IndexDef{{Name: "users_email", Columns: []string{"email"}, Unique: true}},
			},
		},
	}

	tables := schema.FromSnapshot(snap)
	require.Len(t, tables, 2)

	orders, users := tables[0], tables[1]
	assert.Equal(t, []string{"shop.users"}, orders.Dependencies)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, &schema.ForeignKey{Column: "user_id", RefTable: "shop.users", RefColumn: "id"}, orders.ForeignKeys[0])
	assert.Nil(t, orders.ForeignKey("parent_id"))
	assert.Equal(t, "id", orders.Identity().Name)
	assert.Equal(t, "registered date", orders.Columns[3].Meaning)
	assert.True(t, orders.Columns[2].IsNullable())
	assert.True(t, orders.Columns[3].IsNullable())
	assert.False(t, orders.Columns[1].IsNullable())

	assert.Nil(t, users.Identity())
	assert.True(t, users.Columns[0].IsPK)
	assert.True(t, users.Columns[1].IsUnique)
	assert.Equal(t, "email", users.Columns[1].Meaning)

	sorted := schema.SortTablesByFKCount(tables)
	assert.Equal(t, []string{"shop.users", "shop.orders"}, names(sorted))
}

type snapshotter struct {
	snap *core.SchemaSnapshot
	seen []string
}

func (s *snapshotter) Snapshot(_ context.Context, schemas ...string) (*core.SchemaSnapshot, error) {
	s.seen = schemas
	return s.snap, nil
}

func (s *snapshotter) Table(context.Context, core.TableIdent) (*core.TableDef, error) {
	return nil, core.ErrNotFound
}

func (s *snapshotter) ShowCreateTable(context.Context, core.TableIdent) (string, error) {
	return "", core.ErrUnsupported
}

func TestAnalyze(t *testing.T) {
	in := &snapshotter{snap: &core.SchemaSnapshot{Tables: []core.TableDef{
		{
			Ident:       core.TableIdent{Table: "b"},
			Columns:     []core.ColumnDef{{Name: "a_id", DataType: "int"}},
			ForeignKeys: []core.ForeignKeyDef{{Columns: []string{"a_id"}, RefTable: "a", RefColumns: []string{"id"}}},
		},
		{Ident: core.TableIdent{Table: "a"}, Columns: []core.ColumnDef{{Name: "id", DataType: "int"}}},
	}}}

	tables, err := schema.Analyze(context.Background(), in, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, in.seen)
	assert.Equal(t, []string{"a", "b"}, names(tables))
}

func TestAnalyzeMeaning(t *testing.T) {
	tests := []struct {
		col, comment, want string
	}{
		{"contact", "Mobile phone of the customer", "phone"},
		{"c1", "Postal code", "zipcode"},
		{"usr_nm", "", "user name"},
		{"reg_dt", "", "registered date"},
		{"is_del", "", "yesno deleted"},
		{"homepage", "Personal URL", "url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, schema.AnalyzeMeaning(tt.col, tt.comment), tt.col)
	}
}
