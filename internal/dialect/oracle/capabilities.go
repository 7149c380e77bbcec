package oracle

import "sqlbridge/internal/core"

// Baseline is Oracle Database 12c Release 1, which brought identity
// columns and OFFSET/FETCH.
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
			FullTextSearch:   true,
			GeneratedColumns: true,
			CheckConstraints: true,
		},
	}
}

var Features = []core.Feature{
	{Name: "json functions", Since: core.V(12, 2, 0), Enable: func(m *core.CapabilityMatrix) { m.Misc.JSONNative = true }},
}

// Refine reads the VERSION column of product_component_version, e.g.
// "19.0.0.0.0".
func Refine(base core.CapabilityMatrix, version string) core.CapabilityMatrix {
	return core.RefineString(base, version, Features)
}
