package oracle

import (
	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

// DCL renders user, role and privilege statements. Users are schemas;
// hosts do not apply.
type DCL struct{}

var _ core.DCLBuilder = DCL{}

// CreateUser without a password creates an externally identified user.
// Passwords are quoted identifiers, so they cannot hold a double quote.
func (DCL) CreateUser(name string, opts core.UserOptions) string {
	s := "CREATE USER " + quote.Ident(name)
	if opts.Password != "" {
		s += " IDENTIFIED BY " + quote.Ident(opts.Password)
	} else {
		s += " IDENTIFIED EXTERNALLY"
	}
	if opts.IfNotExists {
		return ignoring(s, errUserExists)
	}
	return s
}

// DropUser cascades when asked, dropping the objects the user owns.
func (DCL) DropUser(name, _ string, opts core.DropOptions) string {
	s := "DROP USER " + quote.Ident(name)
	if opts.Cascade {
		s += " CASCADE"
	}
	if opts.MustExist {
		return s
	}
	return ignoring(s, errUserMissing)
}

func (DCL) CreateRole(name string) string {
	return "CREATE ROLE " + quote.Ident(name)
}

func (DCL) DropRole(name string, opts core.DropOptions) string {
	s := "DROP ROLE " + quote.Ident(name)
	if opts.MustExist {
		return s
	}
	return ignoring(s, errRoleMissing)
}

// grantTarget returns the ON clause. Object privileges need a table;
// a database target grants system privileges such as CREATE SESSION.
func grantTarget(on core.GrantTarget, op string) (string, error) {
	switch {
	case on.Table != nil:
		return " ON " + quote.Table(*on.Table), nil
	case on.Schema != "":
		return "", unsupported(op, "schema-wide privileges")
	}
	return "", nil
}

func (DCL) Grant(privileges []string, on core.GrantTarget, to string) (string, error) {
	privs, err := sqlgen.Privileges(core.Oracle, privileges)
	if err != nil {
		return "", err
	}
	target, err := grantTarget(on, "grant")
	if err != nil {
		return "", err
	}
	return "GRANT " + privs + target + " TO " + quote.Ident(to), nil
}

func (DCL) Revoke(privileges []string, on core.GrantTarget, from string) (string, error) {
	privs, err := sqlgen.Privileges(core.Oracle, privileges)
	if err != nil {
		return "", err
	}
	target, err := grantTarget(on, "revoke")
	if err != nil {
		return "", err
	}
	return "REVOKE " + privs + target + " FROM " + quote.Ident(from), nil
}
