package sqlite

import "strings"

// tableBody returns the text between the outermost parentheses of a
// CREATE TABLE statement.
func tableBody(createSQL string) string {
	start := strings.IndexByte(createSQL, '(')
	if start < 0 {
		return ""
	}
	end := matchParen(createSQL, start)
	if end < 0 {
		return ""
	}
	return createSQL[start+1 : end]
}

// matchParen returns the index of the parenthesis closing the one at open,
// skipping quoted text, or -1.
func matchParen(s string, open int) int {
	depth := 0
	var quoteCh byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quoteCh != 0 {
			if c == quoteCh {
				quoteCh = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quoteCh = c
		case '[':
			quoteCh = ']'
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitDefs splits a table body at top-level commas.
func splitDefs(body string) []string {
	var (
		out     []string
		depth   int
		quoteCh byte
		start   int
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quoteCh != 0 {
			if c == quoteCh {
				quoteCh = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quoteCh = c
		case '[':
			quoteCh = ']'
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// leadingName returns the first identifier of a definition, unquoted.
func leadingName(def string) string {
	def = strings.TrimSpace(def)
	if def == "" {
		return ""
	}
	switch def[0] {
	case '"', '`', '[':
		closeCh := def[0]
		if closeCh == '[' {
			closeCh = ']'
		}
		if end := strings.IndexByte(def[1:], closeCh); end >= 0 {
			return def[1 : end+1]
		}
		return ""
	}
	if end := strings.IndexAny(def, " \t\r\n("); end >= 0 {
		return def[:end]
	}
	return def
}

// parenAfter returns the parenthesized text following the first
// case-insensitive occurrence of keyword in def.
func parenAfter(def, keyword string) (string, bool) {
	i := strings.Index(strings.ToUpper(def), keyword)
	if i < 0 {
		return "", false
	}
	open := strings.IndexByte(def[i:], '(')
	if open < 0 {
		return "", false
	}
	open += i
	end := matchParen(def, open)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(def[open+1 : end]), true
}

// tableConstraint reports whether a body definition is a table constraint
// rather than a column.
func tableConstraint(def string) bool {
	upper := strings.ToUpper(strings.TrimSpace(def))
	for _, kw := range []string{"CONSTRAINT ", "PRIMARY KEY", "UNIQUE", "CHECK", "FOREIGN KEY"} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}

// columnDefs maps column names to their definition text.
func columnDefs(createSQL string) map[string]string {
	out := map[string]string{}
	for _, def := range splitDefs(tableBody(createSQL)) {
		if tableConstraint(def) {
			continue
		}
		if name := leadingName(def); name != "" {
			out[strings.ToLower(name)] = def
		}
	}
	return out
}

type checkDef struct {
	name, expr string
}

// tableChecks extracts table-level CHECK constraints.
func tableChecks(createSQL string) []checkDef {
	var out []checkDef
	for _, def := range splitDefs(tableBody(createSQL)) {
		upper := strings.ToUpper(def)
		var name string
		if strings.HasPrefix(upper, "CONSTRAINT ") {
			rest := strings.TrimSpace(def[len("CONSTRAINT "):])
			name = leadingName(rest)
			upper = strings.ToUpper(rest)
			def = rest
		}
		if !strings.HasPrefix(upper, "CHECK") && !strings.Contains(upper, " CHECK") {
			continue
		}
		if expr, ok := parenAfter(def, "CHECK"); ok {
			out = append(out, checkDef{name: name, expr: expr})
		}
	}
	return out
}

// indexPredicate returns the WHERE clause of a CREATE INDEX statement.
func indexPredicate(createSQL string) string {
	upper := strings.ToUpper(createSQL)
	i := strings.LastIndex(upper, " WHERE ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(createSQL[i+len(" WHERE "):])
}

// generatedExpr returns the expression of a generated column definition.
func generatedExpr(def string) string {
	upper := strings.ToUpper(def)
	i := strings.Index(upper, "GENERATED ALWAYS AS")
	if i < 0 {
		if i = strings.Index(upper, " AS ("); i < 0 {
			i = strings.Index(upper, " AS(")
		}
	}
	if i < 0 {
		return ""
	}
	expr, _ := parenAfter(def[i:], "AS")
	return expr
}
