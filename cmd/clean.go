package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all rows from the analyzed tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		targetTables, err := analyzeTargets(ctx)
		if err != nil {
			return err
		}
		if err := newPumper().Clean(ctx, targetTables); err != nil {
			return err
		}
		log.Println("Database Cleaned Successfully!")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringSliceVarP(&tables, "tables", "t", nil, "Specific tables to clean (comma-separated)")
	cleanCmd.Flags().StringSliceVar(&schemas, "schema", nil, "Schemas to analyze (default: every user schema)")
}
