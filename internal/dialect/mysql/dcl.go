package mysql

import (
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DCL renders MySQL account statements. Accounts are 'user'@'host' pairs;
// an empty host means '%'.
type DCL struct{}

var _ core.DCLBuilder = DCL{}

func account(name, host string) string {
	if host == "" {
		host = "%"
	}
	return literal.String(name) + "@" + literal.String(host)
}

// grantee accepts "user", "user@host" or a role name.
func grantee(to string) string {
	if i := strings.LastIndexByte(to, '@'); i > 0 {
		return account(to[:i], to[i+1:])
	}
	return account(to, "")
}

func (DCL) CreateUser(name string, opts core.UserOptions) string {
	s := "CREATE USER "
	if opts.IfNotExists {
		s += "IF NOT EXISTS "
	}
	s += account(name, opts.Host)
	if opts.Password != "" {
		s += " IDENTIFIED BY " + literal.String(opts.Password)
	}
	return s
}

func (DCL) DropUser(name, host string, opts core.DropOptions) string {
	return "DROP USER " + ifExists(opts) + account(name, host)
}

func (DCL) CreateRole(name string) string {
	return "CREATE ROLE " + quote.Ident(name)
}

func (DCL) DropRole(name string, opts core.DropOptions) string {
	return "DROP ROLE " + ifExists(opts) + quote.Ident(name)
}

// grantTarget picks the most specific scope. MySQL has no schemas apart
// from databases, so Schema and Database mean the same.
func grantTarget(on core.GrantTarget) string {
	switch {
	case on.Table != nil:
		return quote.Table(*on.Table)
	case on.Schema != "":
		return quote.Ident(on.Schema) + ".*"
	case on.Database != "":
		return quote.Ident(on.Database) + ".*"
	}
	return "*.*"
}

func (DCL) Grant(privileges []string, on core.GrantTarget, to string) (string, error) {
	privs, err := sqlgen.Privileges(core.MySQL, privileges)
	if err != nil {
		return "", err
	}
	return "GRANT " + privs + " ON " + grantTarget(on) + " TO " + grantee(to), nil
}

func (DCL) Revoke(privileges []string, on core.GrantTarget, from string) (string, error) {
	privs, err := sqlgen.Privileges(core.MySQL, privileges)
	if err != nil {
		return "", err
	}
	return "REVOKE " + privs + " ON " + grantTarget(on) + " FROM " + grantee(from), nil
}
