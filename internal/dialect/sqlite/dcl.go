package sqlite

import "sqlbridge/internal/core"

// DCL exists to satisfy the builder set. SQLite has no accounts, so the
// statement methods render nothing and grants fail.
type DCL struct{}

var _ core.DCLBuilder = DCL{}

func (DCL) CreateUser(string, core.UserOptions) string       { return "" }
func (DCL) DropUser(string, string, core.DropOptions) string { return "" }
func (DCL) CreateRole(string) string                         { return "" }
func (DCL) DropRole(string, core.DropOptions) string         { return "" }

func (DCL) Grant([]string, core.GrantTarget, string) (string, error) {
	return "", unsupported("grant", "GRANT")
}

func (DCL) Revoke([]string, core.GrantTarget, string) (string, error) {
	return "", unsupported("revoke", "REVOKE")
}
