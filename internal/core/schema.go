package core

import (
	"fmt"
	"strings"
	"time"
)

// Nullability is tri-state so that "not specified" stays distinguishable
// from an explicit NULL or NOT NULL.
type Nullability uint8

const (
	NullUnspecified Nullability = iota
	Nullable
	NotNull
)

func (n Nullability) String() string {
	switch n {
	case Nullable:
		return "nullable"
	case NotNull:
		return "not_null"
	}
	return "unspecified"
}

func (n Nullability) MarshalText() ([]byte, error) {
	if n == NullUnspecified {
		return []byte(""), nil
	}
	return []byte(n.String()), nil
}

func (n *Nullability) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "unspecified":
		*n = NullUnspecified
	case "nullable", "null", "true", "yes":
		*n = Nullable
	case "not_null", "not null", "notnull", "false", "no":
		*n = NotNull
	default:
		return fmt.Errorf("unknown nullability %q", b)
	}
	return nil
}

// FKAction is the referential action of a foreign key.
type FKAction string

const (
	FKUnspecified FKAction = ""
	FKNoAction    FKAction = "no_action"
	FKRestrict    FKAction = "restrict"
	FKCascade     FKAction = "cascade"
	FKSetNull     FKAction = "set_null"
	FKSetDefault  FKAction = "set_default"
)

// ParseFKAction maps catalog spellings ("SET NULL", "NO_ACTION", ...) onto
// the enum. Unknown text yields FKUnspecified.
func ParseFKAction(s string) FKAction {
	switch strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(s))) {
	case "no_action":
		return FKNoAction
	case "restrict":
		return FKRestrict
	case "cascade":
		return FKCascade
	case "set_null":
		return FKSetNull
	case "set_default":
		return FKSetDefault
	}
	return FKUnspecified
}

// IsolationLevel is the closed set of transaction isolation levels.
type IsolationLevel string

const (
	IsolationDefault IsolationLevel = ""
	ReadUncommitted  IsolationLevel = "read_uncommitted"
	ReadCommitted    IsolationLevel = "read_committed"
	RepeatableRead   IsolationLevel = "repeatable_read"
	Serializable     IsolationLevel = "serializable"
)

func (l IsolationLevel) Valid() bool {
	switch l {
	case ReadUncommitted, ReadCommitted, RepeatableRead, Serializable:
		return true
	}
	return false
}

type SchemaIdent struct {
	Schema string `json:"schema" yaml:"schema"`
}

type TableIdent struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table  string `json:"table" yaml:"table"`
}

func (t TableIdent) String() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// ParseTableIdent splits "schema.table" or returns a bare table name.
func ParseTableIdent(s string) TableIdent {
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		return TableIdent{Schema: s[:i], Table: s[i+1:]}
	}
	return TableIdent{Table: s}
}

type ColumnDef struct {
	Name      string `json:"name" yaml:"name"`
	DataType  string `json:"dataType" yaml:"dataType"`
	Length    int    `json:"length,omitempty" yaml:"length,omitempty"`
	Precision int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	// Scale is a pointer because zero is a meaningful scale.
	Scale    *int        `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable Nullability `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	// DefaultValue is rendered as an escaped literal. DefaultExpr is raw SQL
	// the caller vouches for; it wins when both are set.
	DefaultValue *Value `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	DefaultExpr  string `json:"defaultExpr,omitempty" yaml:"defaultExpr,omitempty"`

	AutoIncrement bool `json:"autoIncrement,omitempty" yaml:"autoIncrement,omitempty"`
	Unsigned      bool `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`

	ComputedExpr   string `json:"computedExpr,omitempty" yaml:"computedExpr,omitempty"`
	ComputedStored bool   `json:"computedStored,omitempty" yaml:"computedStored,omitempty"`

	EnumValues      []string `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
	Comment         string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	OrdinalPosition int      `json:"ordinalPosition,omitempty" yaml:"ordinalPosition,omitempty"`
}

type PrimaryKey struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
}

type IndexDef struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Where is a raw partial-index predicate.
	Where string `json:"where,omitempty" yaml:"where,omitempty"`
	Using string `json:"using,omitempty" yaml:"using,omitempty"`
}

type CheckDef struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Expression string `json:"expression" yaml:"expression"`
}

type ForeignKeyDef struct {
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string `json:"columns" yaml:"columns"`
	RefSchema  string   `json:"refSchema,omitempty" yaml:"refSchema,omitempty"`
	RefTable   string   `json:"refTable" yaml:"refTable"`
	RefColumns []string `json:"refColumns" yaml:"refColumns"`
	OnUpdate   FKAction `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty"`
	OnDelete   FKAction `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
}

type ViewDef struct {
	Name       string `json:"name" yaml:"name"`
	Definition string `json:"definition" yaml:"definition"`
}

// TableDef is both the desired state fed to DDL builders and the observed
// state produced by introspectors.
type TableDef struct {
	Ident       TableIdent      `json:"ident" yaml:"ident"`
	Columns     []ColumnDef     `json:"columns" yaml:"columns"`
	PrimaryKey  *PrimaryKey     `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Indexes     []IndexDef      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeyDef `json:"foreignKeys,omitempty" yaml:"foreignKeys,omitempty"`
	Checks      []CheckDef      `json:"checks,omitempty" yaml:"checks,omitempty"`
	Comment     string          `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Column returns the named column, case-insensitively.
func (t *TableDef) Column(name string) (*ColumnDef, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in declaration order.
func (t *TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsPrimaryKey reports whether col is part of the primary key.
func (t *TableDef) IsPrimaryKey(col string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if strings.EqualFold(c, col) {
			return true
		}
	}
	return false
}

// IsUnique reports whether col alone is covered by a unique index or is the
// single-column primary key.
func (t *TableDef) IsUnique(col string) bool {
	if t.PrimaryKey != nil && len(t.PrimaryKey.Columns) == 1 && strings.EqualFold(t.PrimaryKey.Columns[0], col) {
		return true
	}
	for _, idx := range t.Indexes {
		if idx.Unique && len(idx.Columns) == 1 && strings.EqualFold(idx.Columns[0], col) {
			return true
		}
	}
	return false
}

type SchemaSnapshot struct {
	Dialect    Dialect       `json:"dialect" yaml:"dialect"`
	CapturedAt time.Time     `json:"capturedAt" yaml:"capturedAt"`
	Schemas    []SchemaIdent `json:"schemas" yaml:"schemas"`
	Tables     []TableDef    `json:"tables" yaml:"tables"`
}

// Table finds a table in the snapshot.
func (s *SchemaSnapshot) Table(ident TableIdent) (*TableDef, bool) {
	for i := range s.Tables {
		t := &s.Tables[i]
		if strings.EqualFold(t.Ident.Table, ident.Table) &&
			(ident.Schema == "" || strings.EqualFold(t.Ident.Schema, ident.Schema)) {
			return t, true
		}
	}
	return nil, false
}
