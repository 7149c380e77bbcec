package mysql

import (
	"strings"

	"sqlbridge/internal/core"
)

// Baseline is what every supported MySQL server offers.
func Baseline() core.CapabilityMatrix {
	return core.CapabilityMatrix{
		DDL: core.DDLCapabilities{
			CreateTable: true,
			AlterTable:  true,
			DropTable:   true,
			CreateIndex: true,
			DropIndex:   true,
			CreateView:  true,
			Triggers:    true,
		},
		DML: core.DMLCapabilities{
			Upsert: core.UpsertOnDuplicate,
		},
		DCL: core.DCLCapabilities{
			Users:  true,
			Roles:  true,
			Grants: true,
		},
		TCL: core.TCLCapabilities{
			Savepoints:   true,
			SetIsolation: true,
		},
		Misc: core.MiscCapabilities{
			Explain:        true,
			Analyze:        true,
			FullTextSearch: true,
		},
	}
}

// Features are MySQL's version thresholds.
var Features = []core.Feature{
	{Name: "json", Since: core.V(5, 7, 8), Enable: func(m *core.CapabilityMatrix) { m.Misc.JSONNative = true }},
	{Name: "generated columns", Since: core.V(5, 7, 6), Enable: func(m *core.CapabilityMatrix) {
		m.Misc.GeneratedColumns = true
		m.DDL.ComputedColumns = true
	}},
	{Name: "ctes", Since: core.V(8, 0, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.CTEs = true }},
	{Name: "window functions", Since: core.V(8, 0, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.WindowFunctions = true }},
	{Name: "check constraints", Since: core.V(8, 0, 16), Enable: func(m *core.CapabilityMatrix) { m.Misc.CheckConstraints = true }},
}

// MariaDBFeatures apply when the version string names MariaDB, whose 10.x
// numbering is unrelated to MySQL's.
var MariaDBFeatures = []core.Feature{
	{Name: "generated columns", Since: core.V(5, 2, 0), Enable: func(m *core.CapabilityMatrix) {
		m.Misc.GeneratedColumns = true
		m.DDL.ComputedColumns = true
	}},
	{Name: "ctes", Since: core.V(10, 2, 1), Enable: func(m *core.CapabilityMatrix) { m.DML.CTEs = true }},
	{Name: "window functions", Since: core.V(10, 2, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.WindowFunctions = true }},
	{Name: "check constraints", Since: core.V(10, 2, 1), Enable: func(m *core.CapabilityMatrix) { m.Misc.CheckConstraints = true }},
	{Name: "sequences", Since: core.V(10, 3, 0), Enable: func(m *core.CapabilityMatrix) { m.DDL.Sequences = true }},
	{Name: "returning", Since: core.V(10, 5, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.Returning = true }},
}

// Refine applies the thresholds matching the server family of version.
func Refine(base core.CapabilityMatrix, version string) core.CapabilityMatrix {
	if IsMariaDB(version) {
		return core.RefineString(base, version, MariaDBFeatures)
	}
	return core.RefineString(base, version, Features)
}

// IsMariaDB reports whether a version string (version plus comment) comes
// from MariaDB.
func IsMariaDB(version string) bool {
	return strings.Contains(strings.ToLower(version), "mariadb")
}
