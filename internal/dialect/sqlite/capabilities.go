package sqlite

import "sqlbridge/internal/core"

// Baseline reflects SQLite 3.8, the oldest library we accept. SQLite has
// no users or grants.
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
			Upsert: core.UpsertNone,
			CTEs:   true,
		},
		TCL: core.TCLCapabilities{
			Savepoints: true,
		},
		Misc: core.MiscCapabilities{
			Explain:          true,
			Analyze:          true,
			CheckConstraints: true,
		},
	}
}

var Features = []core.Feature{
	{Name: "upsert", Since: core.V(3, 24, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.Upsert = core.UpsertOnConflict }},
	{Name: "window functions", Since: core.V(3, 25, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.WindowFunctions = true }},
	{Name: "generated columns", Since: core.V(3, 31, 0), Enable: func(m *core.CapabilityMatrix) {
		m.Misc.GeneratedColumns = true
		m.DDL.ComputedColumns = true
	}},
	{Name: "returning", Since: core.V(3, 35, 0), Enable: func(m *core.CapabilityMatrix) { m.DML.Returning = true }},
	{Name: "json", Since: core.V(3, 38, 0), Enable: func(m *core.CapabilityMatrix) { m.Misc.JSONNative = true }},
}

func Refine(base core.CapabilityMatrix, version string) core.CapabilityMatrix {
	return core.RefineString(base, version, Features)
}
