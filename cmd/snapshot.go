package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sqlbridge/internal/core"
)

var (
	snapshotFormat string
	snapshotOut    string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [schema...]",
	Short: "Capture tables, columns, keys and indexes as JSON or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := Provider.NewIntrospector(Client).Snapshot(cmd.Context(), args...)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if snapshotOut != "" && snapshotOut != "-" {
			f, err := os.Create(snapshotOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", snapshotOut, err)
			}
			defer f.Close()
			w = f
		}
		if err := writeSnapshot(w, snap, snapshotFormat); err != nil {
			return err
		}
		log.Printf("Captured %d table(s) in %d schema(s)", len(snap.Tables), len(snap.Schemas))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "json", "Output format: json or yaml")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "Output file (default stdout)")
}

func writeSnapshot(w io.Writer, snap *core.SchemaSnapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}
