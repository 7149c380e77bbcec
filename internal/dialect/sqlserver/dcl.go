package sqlserver

import (
	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DCL renders logins, database users and roles. A user created with a
// password gets a SQL login of the same name; without one it is a user
// without login. Hosts do not apply.
type DCL struct{}

var _ core.DCLBuilder = DCL{}

func principalExists(view, name string) string {
	return "EXISTS (SELECT 1 FROM " + view + " WHERE name = " + nstring(name) + ")"
}

func (DCL) CreateUser(name string, opts core.UserOptions) string {
	guard := func(view, stmt string) string {
		if opts.IfNotExists {
			return "IF NOT " + principalExists(view, name) + " " + stmt
		}
		return stmt
	}
	if opts.Password == "" {
		return guard("sys.database_principals", "CREATE USER "+quote.Ident(name)+" WITHOUT LOGIN")
	}
	return guard("sys.server_principals", "CREATE LOGIN "+quote.Ident(name)+" WITH PASSWORD = "+nstring(opts.Password)) +
		sqlgen.ScriptSeparator +
		guard("sys.database_principals", "CREATE USER "+quote.Ident(name)+" FOR LOGIN "+quote.Ident(name))
}

// DropUser drops the database user and its login, if there is one.
func (DCL) DropUser(name, _ string, opts core.DropOptions) string {
	user := "DROP USER " + quote.Ident(name)
	if !opts.MustExist {
		user = "IF " + principalExists("sys.database_principals", name) + " " + user
	}
	return user + sqlgen.ScriptSeparator +
		"IF " + principalExists("sys.server_principals", name) + " DROP LOGIN " + quote.Ident(name)
}

func (DCL) CreateRole(name string) string {
	return "CREATE ROLE " + quote.Ident(name)
}

func (DCL) DropRole(name string, opts core.DropOptions) string {
	stmt := "DROP ROLE " + quote.Ident(name)
	if opts.MustExist {
		return stmt
	}
	return "IF " + principalExists("sys.database_principals", name) + " " + stmt
}

// grantTarget returns the ON clause. Without a target the permission is
// granted on the current database.
func grantTarget(on core.GrantTarget) string {
	switch {
	case on.Table != nil:
		return " ON OBJECT::" + quote.Table(*on.Table)
	case on.Schema != "":
		return " ON SCHEMA::" + quote.Ident(on.Schema)
	case on.Database != "":
		return " ON DATABASE::" + quote.Ident(on.Database)
	}
	return ""
}

func (DCL) Grant(privileges []string, on core.GrantTarget, to string) (string, error) {
	privs, err := sqlgen.Privileges(core.SQLServer, privileges)
	if err != nil {
		return "", err
	}
	return "GRANT " + privs + grantTarget(on) + " TO " + quote.Ident(to), nil
}

func (DCL) Revoke(privileges []string, on core.GrantTarget, from string) (string, error) {
	privs, err := sqlgen.Privileges(core.SQLServer, privileges)
	if err != nil {
		return "", err
	}
	return "REVOKE " + privs + grantTarget(on) + " FROM " + quote.Ident(from), nil
}
