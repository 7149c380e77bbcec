package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sqlbridge/internal/core"
	"sqlbridge/internal/registry"
	"sqlbridge/internal/sqlgen"
)

var renderIfNotExists bool

// Document is the YAML input of render. Tables are created in file order,
// views after them.
type Document struct {
	Dialect string          `yaml:"dialect"`
	Tables  []core.TableDef `yaml:"tables"`
	Views   []ViewDoc       `yaml:"views"`
}

type ViewDoc struct {
	Schema     string `yaml:"schema"`
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"`
}

var renderCmd = &cobra.Command{
	Use:   "render <file.yaml>",
	Short: "Render CREATE statements for a YAML schema without connecting",
	Args:  cobra.ExactArgs(1),
	Annotations: map[string]string{
		offline: "true",
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var doc Document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		name := viper.GetString("database.dialect")
		if name == "" {
			name = doc.Dialect
		}
		p, err := registry.Require(registry.Synonym(name))
		if err != nil {
			return err
		}
		return renderDocument(os.Stdout, p.Builders().DDL, doc, core.CreateTableOptions{IfNotExists: renderIfNotExists})
	},
}

func init() {
	RootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&renderIfNotExists, "if-not-exists", false, "Guard every CREATE against existing objects")
}

func renderDocument(w io.Writer, ddl core.DDLBuilder, doc Document, opts core.CreateTableOptions) error {
	var stmts []string
	for _, t := range doc.Tables {
		script, err := ddl.CreateTable(t, opts)
		if err != nil {
			return fmt.Errorf("table %s: %w", t.Ident, err)
		}
		stmts = append(stmts, sqlgen.SplitScript(script)...)
	}
	for _, v := range doc.Views {
		stmt, err := ddl.CreateView(core.SchemaIdent{Schema: v.Schema}, core.ViewDef{Name: v.Name, Definition: v.Definition}, false)
		if err != nil {
			return fmt.Errorf("view %s: %w", v.Name, err)
		}
		stmts = append(stmts, sqlgen.SplitScript(stmt)...)
	}
	for i, s := range stmts {
		if !strings.HasSuffix(s, ";") {
			stmts[i] = s + ";"
		}
	}
	_, err := io.WriteString(w, strings.Join(stmts, "\n\n")+"\n")
	return err
}
