package sqlgen

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sqlbridge/internal/core"
)

// LiteralStyle describes how an engine spells inline literals.
type LiteralStyle struct {
	Dialect core.Dialect
	// EscapeBackslash doubles backslashes inside strings, for engines that
	// treat them as escapes.
	EscapeBackslash bool
	True, False     string
	// TimePrefix is written before the quoted timestamp, e.g. "TIMESTAMP ".
	TimePrefix string
	Bytes      func([]byte) string
}

// DefaultTimeLayout is the literal form of timestamps.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Literal renders v as an escaped SQL literal. NaN and infinities have no
// literal form and are rejected.
func (s LiteralStyle) Literal(v core.Value) (string, error) {
	switch v.Kind() {
	case core.KindNull:
		return "NULL", nil
	case core.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10), nil
	case core.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", core.InvalidInput(s.Dialect, "literal", fmt.Sprintf("%v has no SQL literal", f))
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case core.KindBool:
		if b, _ := v.AsBool(); b {
			return s.True, nil
		}
		return s.False, nil
	case core.KindTime:
		t, _ := v.AsTime()
		return s.TimePrefix + "'" + t.Format(DefaultTimeLayout) + "'", nil
	case core.KindBytes:
		raw, _ := v.AsBytes()
		if s.Bytes != nil {
			return s.Bytes(raw), nil
		}
		return "X'" + hex.EncodeToString(raw) + "'", nil
	}
	str, _ := v.AsString()
	return s.String(str), nil
}

// String quotes str, doubling single quotes.
func (s LiteralStyle) String(str string) string {
	if s.EscapeBackslash {
		str = strings.ReplaceAll(str, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(str, "'", "''") + "'"
}

// Default renders a column default: the raw expression when present,
// otherwise the escaped literal. ok is false when the column has neither.
func (s LiteralStyle) Default(c core.ColumnDef) (def string, ok bool, err error) {
	if c.DefaultExpr != "" {
		return c.DefaultExpr, true, nil
	}
	if c.DefaultValue == nil {
		return "", false, nil
	}
	def, err = s.Literal(*c.DefaultValue)
	if err != nil {
		return "", false, fmt.Errorf("default of column %s: %w", c.Name, err)
	}
	return def, true, nil
}

// FormatTime renders t with the literal layout.
func FormatTime(t time.Time) string {
	return t.Format(DefaultTimeLayout)
}
