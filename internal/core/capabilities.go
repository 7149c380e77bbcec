package core

import (
	"regexp"
	"strconv"
)

// UpsertSyntax names the insert-or-update syntax family an engine speaks.
type UpsertSyntax string

const (
	UpsertNone        UpsertSyntax = "none"
	UpsertOnDuplicate UpsertSyntax = "on_duplicate"
	UpsertOnConflict  UpsertSyntax = "on_conflict"
	UpsertMerge       UpsertSyntax = "merge"
)

type DDLCapabilities struct {
	CreateTable     bool `json:"createTable" yaml:"createTable"`
	AlterTable      bool `json:"alterTable" yaml:"alterTable"`
	DropTable       bool `json:"dropTable" yaml:"dropTable"`
	CreateIndex     bool `json:"createIndex" yaml:"createIndex"`
	AlterIndex      bool `json:"alterIndex" yaml:"alterIndex"`
	DropIndex       bool `json:"dropIndex" yaml:"dropIndex"`
	CreateView      bool `json:"createView" yaml:"createView"`
	Triggers        bool `json:"triggers" yaml:"triggers"`
	Sequences       bool `json:"sequences" yaml:"sequences"`
	ComputedColumns bool `json:"computedColumns" yaml:"computedColumns"`
}

type DMLCapabilities struct {
	Upsert          UpsertSyntax `json:"upsert" yaml:"upsert"`
	Returning       bool         `json:"returning" yaml:"returning"`
	CTEs            bool         `json:"ctes" yaml:"ctes"`
	WindowFunctions bool         `json:"windowFunctions" yaml:"windowFunctions"`
}

type DCLCapabilities struct {
	Users            bool `json:"users" yaml:"users"`
	Roles            bool `json:"roles" yaml:"roles"`
	Grants           bool `json:"grants" yaml:"grants"`
	RowLevelSecurity bool `json:"rowLevelSecurity" yaml:"rowLevelSecurity"`
}

type TCLCapabilities struct {
	Savepoints           bool `json:"savepoints" yaml:"savepoints"`
	SetIsolation         bool `json:"setIsolation" yaml:"setIsolation"`
	ParallelTransactions bool `json:"parallelTransactions" yaml:"parallelTransactions"`
}

type MiscCapabilities struct {
	Explain          bool `json:"explain" yaml:"explain"`
	Analyze          bool `json:"analyze" yaml:"analyze"`
	ServerCursors    bool `json:"serverCursors" yaml:"serverCursors"`
	JSONNative       bool `json:"jsonNative" yaml:"jsonNative"`
	FullTextSearch   bool `json:"fullTextSearch" yaml:"fullTextSearch"`
	GeneratedColumns bool `json:"generatedColumns" yaml:"generatedColumns"`
	CheckConstraints bool `json:"checkConstraints" yaml:"checkConstraints"`
}

// CapabilityMatrix records which SQL features a connected engine supports,
// grouped by sublanguage. It is a plain value; copies are independent.
type CapabilityMatrix struct {
	DDL  DDLCapabilities  `json:"ddl" yaml:"ddl"`
	DML  DMLCapabilities  `json:"dml" yaml:"dml"`
	DCL  DCLCapabilities  `json:"dcl" yaml:"dcl"`
	TCL  TCLCapabilities  `json:"tcl" yaml:"tcl"`
	Misc MiscCapabilities `json:"misc" yaml:"misc"`
}

// Version is a parsed server version.
type Version struct {
	Major, Minor, Patch int
	Raw                 string
}

var versionRe = regexp.MustCompile(`^\s*(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion reads the leading major.minor[.patch] digits of a server
// version string. ok is false when the string does not start with them.
func ParseVersion(s string) (v Version, ok bool) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{Raw: s}, false
	}
	v.Raw = s
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// V builds a threshold version.
func V(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch >= o.Patch
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Feature turns on capabilities introduced at a known version.
type Feature struct {
	Name  string
	Since Version
	// Enable must only set flags to true or upgrade UpsertNone.
	Enable func(*CapabilityMatrix)
}

// Refine applies every feature whose threshold v meets. The result is never
// weaker than base: flags that base enables stay enabled.
func Refine(base CapabilityMatrix, v Version, features []Feature) CapabilityMatrix {
	m := base
	for _, f := range features {
		if v.AtLeast(f.Since) {
			f.Enable(&m)
		}
	}
	return monotonic(base, m)
}

// RefineString parses raw and refines base; an unparsable version yields
// base unchanged.
func RefineString(base CapabilityMatrix, raw string, features []Feature) CapabilityMatrix {
	v, ok := ParseVersion(raw)
	if !ok {
		return base
	}
	return Refine(base, v, features)
}

// monotonic restores any flag a misbehaving feature might have cleared.
func monotonic(base, m CapabilityMatrix) CapabilityMatrix {
	or := func(dst *bool, b bool) { *dst = *dst || b }
	or(&m.DDL.CreateTable, base.DDL.CreateTable)
	or(&m.DDL.AlterTable, base.DDL.AlterTable)
	or(&m.DDL.DropTable, base.DDL.DropTable)
	or(&m.DDL.CreateIndex, base.DDL.CreateIndex)
	or(&m.DDL.AlterIndex, base.DDL.AlterIndex)
	or(&m.DDL.DropIndex, base.DDL.DropIndex)
	or(&m.DDL.CreateView, base.DDL.CreateView)
	or(&m.DDL.Triggers, base.DDL.Triggers)
	or(&m.DDL.Sequences, base.DDL.Sequences)
	or(&m.DDL.ComputedColumns, base.DDL.ComputedColumns)
	if base.DML.Upsert != UpsertNone && base.DML.Upsert != "" {
		m.DML.Upsert = base.DML.Upsert
	}
	or(&m.DML.Returning, base.DML.Returning)
	or(&m.DML.CTEs, base.DML.CTEs)
	or(&m.DML.WindowFunctions, base.DML.WindowFunctions)
	or(&m.DCL.Users, base.DCL.Users)
	or(&m.DCL.Roles, base.DCL.Roles)
	or(&m.DCL.Grants, base.DCL.Grants)
	or(&m.DCL.RowLevelSecurity, base.DCL.RowLevelSecurity)
	or(&m.TCL.Savepoints, base.TCL.Savepoints)
	or(&m.TCL.SetIsolation, base.TCL.SetIsolation)
	or(&m.TCL.ParallelTransactions, base.TCL.ParallelTransactions)
	or(&m.Misc.Explain, base.Misc.Explain)
	or(&m.Misc.Analyze, base.Misc.Analyze)
	or(&m.Misc.ServerCursors, base.Misc.ServerCursors)
	or(&m.Misc.JSONNative, base.Misc.JSONNative)
	or(&m.Misc.FullTextSearch, base.Misc.FullTextSearch)
	or(&m.Misc.GeneratedColumns, base.Misc.GeneratedColumns)
	or(&m.Misc.CheckConstraints, base.Misc.CheckConstraints)
	return m
}
