package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"sqlbridge/internal/schema"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Generator produces plausible column values. A fixed seed makes the
// sequence reproducible; it is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewGenerator seeds the faker; seed 0 picks a random seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: time.Now()}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// Value generates a random value for col. Textual values respect the
// column length; temporal values are formatted strings, which every
// driver binds.
func (g *Generator) Value(col *schema.Column) any {
	dataType := strings.ToLower(col.DataType)
	colName := strings.ToLower(col.Name)
	meaning := col.Meaning

	if len(col.EnumValues) > 0 {
		return g.faker.RandomString(col.EnumValues)
	}

	switch {
	case strings.Contains(dataType, "char") || strings.Contains(dataType, "text") ||
		strings.Contains(dataType, "clob") || strings.Contains(dataType, "string"):
		return truncate(g.text(col, colName, meaning), col.Length)

	case strings.Contains(dataType, "uuid") || strings.Contains(dataType, "uniqueidentifier"):
		return g.faker.UUID()

	case strings.Contains(dataType, "json"):
		return fmt.Sprintf(`{"key":%q,"value":%d}`, g.faker.Word(), g.faker.Number(1, 1000))

	case strings.Contains(dataType, "date") || strings.Contains(dataType, "time"):
		val := g.faker.DateRange(g.now.AddDate(-1, 0, 0), g.now)
		switch dataType {
		case "date":
			return val.Format(dateLayout)
		case "time":
			return val.Format(timeLayout)
		}
		return val.Format(dateTimeLayout)

	case dataType == "year":
		return g.faker.Number(2000, 2025)

	case strings.Contains(dataType, "bool") || dataType == "bit":
		return g.faker.Bool()

	case strings.Contains(dataType, "int") || dataType == "number" && col.Scale != nil && *col.Scale == 0:
		return g.integer(col, dataType, colName, meaning)

	case strings.Contains(dataType, "dec") || strings.Contains(dataType, "num") ||
		strings.Contains(dataType, "float") || strings.Contains(dataType, "double") ||
		strings.Contains(dataType, "real") || strings.Contains(dataType, "money"):
		return g.decimal(col)

	case strings.Contains(dataType, "binary") || strings.Contains(dataType, "blob") ||
		strings.Contains(dataType, "bytea") || strings.Contains(dataType, "raw"):
		n := 16
		if col.Length > 0 && col.Length < n {
			n = col.Length
		}
		b := make([]byte, n)
		for i := range b {
			b[i] = g.faker.Uint8()
		}
		return b

	case strings.Contains(dataType, "tsvector"):
		return g.faker.Sentence(5)
	}

	return nil
}

func (g *Generator) text(col *schema.Column, colName, meaning string) string {
	isID := strings.HasSuffix(colName, "id")
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(meaning, w) || strings.Contains(colName, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("year"):
		return fmt.Sprintf("%d", g.faker.Number(2000, 2025))
	case isID:
		// identifiers get the generic values below
	case has("phone"):
		return g.faker.Phone()
	case has("email"):
		return g.faker.Email()
	case has("password"):
		return g.faker.Password(true, true, true, false, false, 12)
	case has("first"):
		return g.faker.FirstName()
	case has("last"):
		return g.faker.LastName()
	case has("user"):
		return g.faker.Username()
	case has("name"):
		if col.Length > 0 && col.Length < 8 {
			return g.faker.LastName()
		}
		return g.faker.Name()
	case has("address"):
		if strings.Contains(colName, "2") {
			return fmt.Sprintf("Apt. %d", g.faker.Number(1, 999))
		}
		return g.faker.Street()
	case has("city"):
		return g.faker.City()
	case has("country"):
		return g.faker.Country()
	case has("district", "province", "state"):
		return g.faker.State()
	case has("url", "homepage", "link"):
		return g.faker.URL()
	case meaning == "ip" || colName == "ip" || strings.HasSuffix(colName, "_ip"):
		return g.faker.IPv4Address()
	case has("title", "subject"):
		return strings.TrimSuffix(g.faker.Sentence(3), ".")
	case has("description", "content", "comment", "message", "text"):
		return g.faker.Sentence(10)
	}

	switch {
	case has("zip", "postal"):
		return g.faker.Zip()
	case has("yesno", "active", "flag"):
		if g.faker.Bool() {
			return "Y"
		}
		return "N"
	case has("code"):
		return strings.ToUpper(g.faker.LetterN(uint(min(max(col.Length, 1), 6))))
	}

	if col.Length > 0 && col.Length < 20 {
		return g.faker.Word()
	}
	return g.faker.Sentence(5)
}

func (g *Generator) integer(col *schema.Column, dataType, colName, meaning string) any {
	if strings.Contains(colName, "active") || strings.Contains(colName, "enabled") ||
		strings.Contains(meaning, "yesno") || strings.Contains(colName, "is_") {
		return g.faker.Number(0, 1)
	}
	if strings.Contains(colName, "year") || strings.Contains(meaning, "year") {
		return g.faker.Number(2000, 2025)
	}
	switch {
	case strings.Contains(dataType, "tinyint"):
		return g.faker.Number(0, 127)
	case strings.Contains(dataType, "smallint"):
		return g.faker.Number(1, 30000)
	}

	maxVal := 50000
	if col.Precision > 0 && col.Precision < 5 {
		maxVal = int(math.Pow10(col.Precision)) - 1
	}
	return g.faker.Number(1, maxVal)
}

func (g *Generator) decimal(col *schema.Column) float64 {
	hi := 99.99
	if col.Precision > 0 {
		scale := 0
		if col.Scale != nil {
			scale = *col.Scale
		}
		if digits := col.Precision - scale; digits >= 0 && digits < 3 {
			hi = math.Pow10(digits) - math.Pow10(-scale)
		}
	}
	v := g.faker.Float64Range(0, hi)
	if col.Scale != nil {
		p := math.Pow10(*col.Scale)
		v = math.Trunc(v*p) / p
	}
	return v
}
