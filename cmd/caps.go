package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Show the detected capabilities of the connected server",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := capabilityRows(Caps)
		if err != nil {
			return err
		}
		fmt.Printf("Dialect: %s\n", Client.Dialect())
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Group", "Feature", "Value"})
		table.SetAutoMergeCells(true)
		table.AppendBulk(rows)
		table.Render()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(capsCmd)
}

// capabilityRows flattens the matrix through its JSON form so the listing
// follows the struct tags.
func capabilityRows(v any) ([][]string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var groups map[string]map[string]any
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}

	order := []string{"ddl", "dml", "dcl", "tcl", "misc"}
	var rows [][]string
	for _, g := range order {
		features := groups[g]
		keys := make([]string, 0, len(features))
		for k := range features {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{g, k, fmt.Sprint(features[k])})
		}
	}
	return rows, nil
}
