package postgres

import "sqlbridge/internal/core"

// Baseline is what PostgreSQL 9.4, the oldest server we talk to, offers.
func Baseline() core.CapabilityMatrix {
	return core.CapabilityMatrix{
		DDL: core.DDLCapabilities{
			CreateTable: true,
			AlterTable:  true,
			DropTable:   true,
			CreateIndex: true,
			AlterIndex:  true,
			DropIndex:   true,
			CreateView:  true,
			Triggers:    true,
			Sequences:   true,
		},
		DML: core.DMLCapabilities{
			Upsert:          core.UpsertNone,
			Returning:       true,
			CTEs:            true,
			WindowFunctions: true,
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
			Explain:          true,
			Analyze:          true,
			ServerCursors:    true,
			JSONNative:       true,
			FullTextSearch:   true,
			CheckConstraints: true,
		},
	}
}

var Features = []core.Feature{
	{Name: "on conflict", Since: core.V(9, 5, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.Upsert = core.UpsertOnConflict }},
	{Name: "row level security", Since: core.V(9, 5, 0), Enable: func(m *core.CapabilityMatrix) { m.DCL.RowLevelSecurity = true }},
	{Name: "generated columns", Since: core.V(12, 0, 0), Enable: func(m *core.CapabilityMatrix) {
		m.Misc.GeneratedColumns = true
		m.DDL.ComputedColumns = true
	}},
}

func Refine(base core.CapabilityMatrix, version string) core.CapabilityMatrix {
	return core.RefineString(base, version, Features)
}
