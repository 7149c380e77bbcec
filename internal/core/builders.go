package core

// CreateTableOptions overrides engine defaults for CreateTable. Empty fields
// take the dialect's default.
type CreateTableOptions struct {
	IfNotExists bool
	Engine      string
	Charset     string
	Collation   string
}

// DropOptions controls DROP statements. The zero value emits an IF EXISTS
// guard.
type DropOptions struct {
	MustExist bool
	Cascade   bool
}

// AlterColumn modifies an existing column. OldName set and different from
// Name means a rename.
type AlterColumn struct {
	ColumnDef `yaml:",inline"`
	OldName   string `json:"oldName,omitempty" yaml:"oldName,omitempty"`
}

// Target is the column name after the alteration.
func (a AlterColumn) Target() string {
	if a.Name != "" {
		return a.Name
	}
	return a.OldName
}

// Source is the column name before the alteration.
func (a AlterColumn) Source() string {
	if a.OldName != "" {
		return a.OldName
	}
	return a.Name
}

// Renamed reports whether the alteration changes the column name.
func (a AlterColumn) Renamed() bool {
	return a.OldName != "" && a.Name != "" && a.OldName != a.Name
}

// AlterTableCommand batches independent alterations. Builders decompose it
// into one statement per operation.
type AlterTableCommand struct {
	AddColumns   []ColumnDef   `json:"addColumns,omitempty" yaml:"addColumns,omitempty"`
	DropColumns  []string      `json:"dropColumns,omitempty" yaml:"dropColumns,omitempty"`
	AlterColumns []AlterColumn `json:"alterColumns,omitempty" yaml:"alterColumns,omitempty"`

	SetPrimaryKey  *PrimaryKey `json:"setPrimaryKey,omitempty" yaml:"setPrimaryKey,omitempty"`
	DropPrimaryKey bool        `json:"dropPrimaryKey,omitempty" yaml:"dropPrimaryKey,omitempty"`

	AddIndexes  []IndexDef `json:"addIndexes,omitempty" yaml:"addIndexes,omitempty"`
	DropIndexes []string   `json:"dropIndexes,omitempty" yaml:"dropIndexes,omitempty"`

	AddChecks  []CheckDef `json:"addChecks,omitempty" yaml:"addChecks,omitempty"`
	DropChecks []string   `json:"dropChecks,omitempty" yaml:"dropChecks,omitempty"`

	AddForeignKeys  []ForeignKeyDef `json:"addForeignKeys,omitempty" yaml:"addForeignKeys,omitempty"`
	DropForeignKeys []string        `json:"dropForeignKeys,omitempty" yaml:"dropForeignKeys,omitempty"`

	// SetComment replaces the table comment; a pointer to "" clears it.
	SetComment *string `json:"setComment,omitempty" yaml:"setComment,omitempty"`
}

// DDLBuilder renders schema definition statements.
type DDLBuilder interface {
	QuoteIdent(name string) string
	QuoteTable(ident TableIdent) string
	CreateTable(def TableDef, opts CreateTableOptions) (string, error)
	AlterTable(ident TableIdent, cmd AlterTableCommand) ([]string, error)
	DropTable(ident TableIdent, opts DropOptions) string
	TruncateTable(ident TableIdent) string
	CreateIndex(ident TableIdent, idx IndexDef, ifNotExists bool) (string, error)
	DropIndex(ident TableIdent, name string, opts DropOptions) string
	CreateView(schema SchemaIdent, view ViewDef, orReplace bool) (string, error)
	DropView(schema SchemaIdent, name string, opts DropOptions) string
	// ForeignKeyChecks toggles session-level FK enforcement. It returns ""
	// when the engine has no such switch.
	ForeignKeyChecks(enabled bool) string
}

// DMLBuilder renders data manipulation statements.
type DMLBuilder interface {
	Placeholder(i int) string
	Insert(ident TableIdent, columns []string) string
	// Upsert inserts row and updates its non-key columns on a conflict over
	// conflictKeys. Columns are emitted in sorted order; Args follow the
	// placeholders.
	Upsert(ident TableIdent, row map[string]any, conflictKeys []string, returning []string) (Statement, error)
	// Paginate appends the engine's limit/offset clause to query.
	Paginate(query string, limit, offset int) string
}

// UserOptions qualifies CreateUser.
type UserOptions struct {
	Host        string
	Password    string
	IfNotExists bool
}

// GrantTarget selects the object of a grant. The most specific non-empty
// scope wins: Table, then Schema, then Database, then everything.
type GrantTarget struct {
	Table    *TableIdent
	Schema   string
	Database string
}

// DCLBuilder renders access control statements.
type DCLBuilder interface {
	CreateUser(name string, opts UserOptions) string
	DropUser(name, host string, opts DropOptions) string
	CreateRole(name string) string
	DropRole(name string, opts DropOptions) string
	Grant(privileges []string, on GrantTarget, to string) (string, error)
	Revoke(privileges []string, on GrantTarget, from string) (string, error)
}

// TCLBuilder renders transaction control statements. ReleaseSavepoint
// returns "" on engines without RELEASE.
type TCLBuilder interface {
	Begin() string
	Commit() string
	Rollback() string
	Savepoint(name string) string
	RollbackTo(name string) string
	ReleaseSavepoint(name string) string
	SetIsolation(level IsolationLevel) (string, error)
}

// Builders is the statement builder set of one dialect.
type Builders struct {
	DDL DDLBuilder
	DML DMLBuilder
	DCL DCLBuilder
	TCL TCLBuilder
}
