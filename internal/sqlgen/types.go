package sqlgen

import (
	"regexp"
	"strconv"
	"strings"

	"sqlbridge/internal/core"
)

var (
	lengthTypes  = map[string]bool{"VARCHAR": true, "CHAR": true, "BINARY": true, "VARBINARY": true, "NVARCHAR": true, "NCHAR": true, "VARCHAR2": true, "NVARCHAR2": true, "CHARACTER VARYING": true, "CHARACTER": true, "BIT": true, "RAW": true}
	decimalTypes = map[string]bool{"DECIMAL": true, "NUMERIC": true, "NUMBER": true, "DEC": true}
)

// TypeSpec renders the data type of c with its length or precision/scale
// arguments when the type takes them.
func TypeSpec(c core.ColumnDef) string {
	base := strings.TrimSpace(c.DataType)
	if strings.Contains(base, "(") {
		return base
	}
	upper := strings.ToUpper(base)
	switch {
	case lengthTypes[upper] && c.Length > 0:
		return base + "(" + strconv.Itoa(c.Length) + ")"
	case decimalTypes[upper] && c.Precision > 0:
		if c.Scale != nil {
			return base + "(" + strconv.Itoa(c.Precision) + "," + strconv.Itoa(*c.Scale) + ")"
		}
		return base + "(" + strconv.Itoa(c.Precision) + ")"
	}
	return base
}

var typeArgsRe = regexp.MustCompile(`^\s*([^(]+?)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)\s*(.*)$`)

// ParseType splits a declared type such as "DECIMAL(10,2) UNSIGNED" into
// its parts. Types without arguments come back unchanged.
func ParseType(declared string) (c core.ColumnDef) {
	c.DataType = strings.TrimSpace(declared)
	m := typeArgsRe.FindStringSubmatch(declared)
	if m == nil {
		return c
	}
	base := m[1]
	first, _ := strconv.Atoi(m[2])
	if m[3] != "" || decimalTypes[strings.ToUpper(base)] {
		c.Precision = first
		if m[3] != "" {
			scale, _ := strconv.Atoi(m[3])
			c.Scale = &scale
		}
	} else {
		c.Length = first
	}
	if strings.Contains(strings.ToLower(m[4]), "unsigned") {
		c.Unsigned = true
	}
	c.DataType = base
	return c
}
