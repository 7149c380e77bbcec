package core

// Dialect identifies a SQL engine family. It is the registry key.
type Dialect string

const (
	Unknown    Dialect = ""
	MySQL      Dialect = "mysql"
	PostgreSQL Dialect = "postgresql"
	SQLite     Dialect = "sqlite"
	SQLServer  Dialect = "sqlserver"
	Oracle     Dialect = "oracle"
)

// Dialects lists every dialect the module knows how to name.
var Dialects = []Dialect{MySQL, PostgreSQL, SQLite, SQLServer, Oracle}

func (d Dialect) String() string {
	if d == Unknown {
		return "unknown"
	}
	return string(d)
}

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	for _, known := range Dialects {
		if d == known {
			return true
		}
	}
	return false
}
