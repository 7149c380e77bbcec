package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbridge/internal/core"
	"sqlbridge/internal/schema"
)

func column(name, dataType string, mod func(*schema.Column)) *schema.Column {
	c := &schema.Column{ColumnDef: core.ColumnDef{Name: name, DataType: dataType}}
	c.Meaning = schema.AnalyzeMeaning(name, "")
	if mod != nil {
		mod(c)
	}
	return c
}

func TestGeneratorIsReproducible(t *testing.T) {
	cols := []*schema.Column{
		column("email", "varchar", nil),
		column("qty", "int", nil),
		column("price", "decimal", nil),
	}
	a, b := NewGenerator(42), NewGenerator(42)
	b.now = a.now
	for range 5 {
		for _, c := range cols {
			assert.Equal(t, a.Value(c), b.Value(c), c.Name)
		}
	}
}

func TestGeneratorRespectsColumnShape(t *testing.T) {
	g := NewGenerator(7)
	scale := 2

	for range 50 {
		v := g.Value(column("usr_nm", "varchar", func(c *schema.Column) { c.Length = 5 }))
		require.IsType(t, "", v)
		assert.LessOrEqual(t, len([]rune(v.(string))), 5)

		status := g.Value(column("status", "enum", func(c *schema.Column) { c.EnumValues = []string{"new", "done"} }))
		assert.Contains(t, []string{"new", "done"}, status)

		d := g.Value(column("ratio", "decimal", func(c *schema.Column) { c.Precision, c.Scale = 3, &scale }))
		require.IsType(t, float64(0), d)
		assert.GreaterOrEqual(t, d.(float64), 0.0)
		assert.Less(t, d.(float64), 10.0)

		flag := g.Value(column("is_active", "tinyint", nil))
		assert.Contains(t, []any{0, 1}, flag)

		bin := g.Value(column("digest", "varbinary", func(c *schema.Column) { c.Length = 4 }))
		assert.Len(t, bin, 4)
	}
}

func TestGeneratorTemporalFormats(t *testing.T) {
	g := NewGenerator(1)

	day := g.Value(column("birth", "date", nil)).(string)
	_, err := time.Parse(dateLayout, day)
	assert.NoError(t, err)

	clock := g.Value(column("opens", "time", nil)).(string)
	_, err = time.Parse(timeLayout, clock)
	assert.NoError(t, err)

	stamp := g.Value(column("created_at", "timestamp", nil)).(string)
	ts, err := time.Parse(dateTimeLayout, stamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 367*24*time.Hour)
}

func TestGeneratorMeanings(t *testing.T) {
	g := NewGenerator(3)

	email := g.Value(column("contact_email", "varchar", nil)).(string)
	assert.Contains(t, email, "@")

	zip := g.Value(column("zip_cd", "char", func(c *schema.Column) { c.Length = 5 })).(string)
	assert.Len(t, zip, 5)

	yn := g.Value(column("use_yn", "char", func(c *schema.Column) { c.Length = 1 }))
	assert.Contains(t, []any{"Y", "N"}, yn)

	assert.Nil(t, g.Value(column("shape", "geometry", nil)))
}
