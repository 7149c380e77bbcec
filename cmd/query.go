package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"sqlbridge/internal/core"
)

var (
	maxRows int
	execSQL bool
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run one statement and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if execSQL {
			res, err := Client.Exec(ctx, args[0], nil, core.WithTrace())
			if err != nil {
				return err
			}
			fmt.Printf("%d row(s) affected in %s\n", res.AffectedRows, res.ExecutionTime)
			return nil
		}

		res, err := Client.Query(ctx, args[0], nil, core.WithTrace(), core.WithMaxRows(maxRows))
		if err != nil {
			return err
		}
		printRows(res)
		suffix := ""
		if res.Truncated {
			suffix = fmt.Sprintf(" (truncated at %d)", maxRows)
		}
		fmt.Printf("%d row(s) in %s%s\n", res.RowCount, res.ExecutionTime, suffix)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVar(&maxRows, "max-rows", 1000, "Stop reading after this many rows (0 for no limit)")
	queryCmd.Flags().BoolVar(&execSQL, "exec", false, "Execute a statement that returns no rows")
}

func printRows(res *core.QueryResult) {
	cols := res.Columns()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(cols)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range res.Rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = row[c].String()
		}
		table.Append(line)
	}
	table.Render()
}
