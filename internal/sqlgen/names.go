package sqlgen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"sqlbridge/internal/core"
)

// ForeignKeyName is the deterministic name given to unnamed foreign keys.
func ForeignKeyName(table string, columns []string) string {
	return "fk_" + table + "_" + strings.Join(columns, "_")
}

// FKActionKeyword maps a referential action to its SQL keyword. The empty
// action renders as "".
func FKActionKeyword(a core.FKAction) (string, error) {
	switch a {
	case core.FKUnspecified:
		return "", nil
	case core.FKNoAction:
		return "NO ACTION", nil
	case core.FKRestrict:
		return "RESTRICT", nil
	case core.FKCascade:
		return "CASCADE", nil
	case core.FKSetNull:
		return "SET NULL", nil
	case core.FKSetDefault:
		return "SET DEFAULT", nil
	}
	return "", fmt.Errorf("unknown foreign key action %q", a)
}

// IsolationKeyword maps an isolation level to the standard keyword.
func IsolationKeyword(l core.IsolationLevel) (string, error) {
	switch l {
	case core.ReadUncommitted:
		return "READ UNCOMMITTED", nil
	case core.ReadCommitted:
		return "READ COMMITTED", nil
	case core.RepeatableRead:
		return "REPEATABLE READ", nil
	case core.Serializable:
		return "SERIALIZABLE", nil
	}
	return "", fmt.Errorf("unknown isolation level %q", l)
}

// Placeholders builds a comma-separated list of count placeholders.
func Placeholders(count int, placeholder func(int) string) string {
	out := make([]string, count)
	for i := range count {
		out[i] = placeholder(i)
	}
	return strings.Join(out, ", ")
}

var privilegeRe = regexp.MustCompile(`^[A-Z][A-Z_ ]*[A-Z]$`)

// Privileges validates and upper-cases privilege keywords. Privileges are
// emitted unquoted so anything but keywords is rejected.
func Privileges(d core.Dialect, privs []string) (string, error) {
	if len(privs) == 0 {
		return "", core.InvalidInput(d, "grant", "no privileges given")
	}
	out := make([]string, len(privs))
	for i, p := range privs {
		p = strings.ToUpper(strings.Join(strings.Fields(p), " "))
		if !privilegeRe.MatchString(p) {
			return "", core.InvalidInput(d, "grant", fmt.Sprintf("invalid privilege %q", privs[i]))
		}
		out[i] = p
	}
	return strings.Join(out, ", "), nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var orderByRe = regexp.MustCompile(`(?i)\border\s+by\b`)

// HasOrderBy reports whether query has an ORDER BY of its own. Clauses
// inside parentheses (subqueries, OVER windows) and inside quoted literals
// or identifiers do not count.
func HasOrderBy(query string) bool {
	return orderByRe.MatchString(topLevel(query))
}

// topLevel blanks out everything nested in parentheses or quotes, keeping
// byte offsets.
func topLevel(query string) string {
	out := []byte(query)
	depth := 0
	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			out[i] = ' '
			continue
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
			out[i] = ' '
			continue
		}
		if depth > 0 || quote != 0 {
			out[i] = ' '
		}
	}
	return string(out)
}

// TrimStatement removes trailing whitespace and semicolons so a clause can
// be appended.
func TrimStatement(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
}

// ScriptSeparator joins the statements of a multi-statement DDL script.
// Builders never emit it inside a single statement.
const ScriptSeparator = ";\n"

// SplitScript splits a builder script into its statements.
func SplitScript(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ScriptSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
