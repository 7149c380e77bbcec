package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"sqlbridge/internal/core"
	"sqlbridge/internal/sqlgen"
)

var (
	exportOut   string
	exportChunk int
)

var exportCmd = &cobra.Command{
	Use:   "export <select>",
	Short: "Stream a query to CSV page by page",
	Long: `Streams the rows of a SELECT to CSV without loading the result into
memory. Give the query an ORDER BY over a unique key; pages are fetched with
LIMIT/OFFSET and are only stable under a total order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var w io.Writer = os.Stdout
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}

		var opts []core.QueryOption
		if exportChunk > 0 {
			opts = append(opts, core.WithMaxRows(exportChunk))
		}
		stream := Client.Stream(ctx, args[0], nil, opts...)
		n, err := writeCSV(ctx, w, stream)
		if err != nil {
			return err
		}
		log.Printf("Exported %d row(s) in %d page(s)", n, stream.Pages())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().IntVar(&exportChunk, "chunk", 0, "Rows per page (default 1000)")
}

// writeCSV drains s into w. The header follows the result columns in the
// order the engine reported them.
func writeCSV(ctx context.Context, w io.Writer, s core.Stream) (int, error) {
	defer s.Close()
	out := csv.NewWriter(w)
	var cols []string
	n := 0
	for s.Next(ctx) {
		row := s.Row()
		if cols == nil {
			cols = streamColumns(s, row)
			if err := out.Write(cols); err != nil {
				return n, err
			}
		}
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = row[c].Text()
		}
		if err := out.Write(rec); err != nil {
			return n, err
		}
		n++
	}
	if err := s.Err(); err != nil {
		return n, err
	}
	out.Flush()
	return n, out.Error()
}

func streamColumns(s core.Stream, first core.Row) []string {
	if fs, ok := s.(interface{ Fields() []core.FieldInfo }); ok && len(fs.Fields()) > 0 {
		cols := make([]string, len(fs.Fields()))
		for i, f := range fs.Fields() {
			cols[i] = f.Name
		}
		return cols
	}
	return sqlgen.SortedKeys(first)
}
