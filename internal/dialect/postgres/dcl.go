package postgres

import (
	"strings"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DCL renders role statements. Users are roles with LOGIN; hosts do not
// apply.
type DCL struct{}

var _ core.DCLBuilder = DCL{}

// CreateUser has no IF NOT EXISTS form on PostgreSQL, so the guarded
// variant runs inside a DO block that swallows duplicate_object.
func (DCL) CreateUser(name string, opts core.UserOptions) string {
	s := "CREATE USER " + quote.Ident(name)
	if opts.Password != "" {
		s += " WITH PASSWORD " + literal.String(opts.Password)
	}
	if opts.IfNotExists {
		return ignoreDuplicate(s)
	}
	return s
}

func ignoreDuplicate(stmt string) string {
	return "DO $$ BEGIN " + stmt + "; EXCEPTION WHEN duplicate_object THEN NULL; END $$"
}

func (DCL) DropUser(name, _ string, opts core.DropOptions) string {
	return "DROP USER " + ifExists(opts) + quote.Ident(name)
}

func (DCL) CreateRole(name string) string {
	return "CREATE ROLE " + quote.Ident(name)
}

func (DCL) DropRole(name string, opts core.DropOptions) string {
	return "DROP ROLE " + ifExists(opts) + quote.Ident(name)
}

// grantTarget falls back to the tables of public when nothing narrower is
// named.
func grantTarget(on core.GrantTarget) string {
	switch {
	case on.Table != nil:
		return "TABLE " + quote.Table(*on.Table)
	case on.Schema != "":
		return "ALL TABLES IN SCHEMA " + quote.Ident(on.Schema)
	case on.Database != "":
		return "DATABASE " + quote.Ident(on.Database)
	}
	return "ALL TABLES IN SCHEMA public"
}

func grantee(name string) string {
	if strings.EqualFold(name, "public") {
		return "PUBLIC"
	}
	return quote.Ident(name)
}

func (DCL) Grant(privileges []string, on core.GrantTarget, to string) (string, error) {
	privs, err := sqlgen.Privileges(core.PostgreSQL, privileges)
	if err != nil {
		return "", err
	}
	return "GRANT " + privs + " ON " + grantTarget(on) + " TO " + grantee(to), nil
}

func (DCL) Revoke(privileges []string, on core.GrantTarget, from string) (string, error) {
	privs, err := sqlgen.Privileges(core.PostgreSQL, privileges)
	if err != nil {
		return "", err
	}
	return "REVOKE " + privs + " ON " + grantTarget(on) + " FROM " + grantee(from), nil
}
