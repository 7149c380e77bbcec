package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sqlbridge/internal/core"
)

var showCreateCmd = &cobra.Command{
	Use:   "show-create <[schema.]table>",
	Short: "Print the CREATE TABLE statement of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ddl, err := Provider.NewIntrospector(Client).ShowCreateTable(cmd.Context(), core.ParseTableIdent(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(ddl)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCreateCmd)
}
