package sqlserver

import "sqlbridge/internal/core"

// Baseline is SQL Server 2012, the first release with OFFSET/FETCH, which
// stream pagination depends on.
func Baseline() core.CapabilityMatrix {
	return core.CapabilityMatrix{
		DDL: core.DDLCapabilities{
			CreateTable:     true,
			AlterTable:      true,
			DropTable:       true,
			CreateIndex:     true,
			AlterIndex:      true,
			DropIndex:       true,
			CreateView:      true,
			Triggers:        true,
			Sequences:       true,
			ComputedColumns: true,
		},
		DML: core.DMLCapabilities{
			Upsert:          core.UpsertMerge,
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
			ServerCursors:    true,
			FullTextSearch:   true,
			GeneratedColumns: true,
			CheckConstraints: true,
		},
	}
}

var Features = []core.Feature{
	{Name: "json functions", Since: core.V(13, 0, 0), Enable: func(m *core.CapabilityMatrix) { m.Misc.JSONNative = true }},
	{Name: "row level security", Since: core.V(13, 0, 0), Enable: func(m *core.CapabilityMatrix) { m.DCL.RowLevelSecurity = true }},
}

// Refine reads ProductVersion, e.g. "16.0.1000.6" for SQL Server 2022.
func Refine(base core.CapabilityMatrix, version string) core.CapabilityMatrix {
	return core.RefineString(base, version, Features)
}
