package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sqlbridge/internal/engine"
	"sqlbridge/internal/schema"
)

var (
	count       int
	clean       bool
	dryRun      bool
	explicitIDs bool
	seed        int64
	tables      []string
	schemas     []string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the database with random data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		targetCount := viper.GetInt("settings.default_count")

		targetTables, err := analyzeTargets(ctx)
		if err != nil {
			return err
		}

		p := newPumper()
		p.ExplicitIDs = explicitIDs
		if seed != 0 {
			p.Gen = engine.NewGenerator(seed)
		}

		if clean {
			if err := p.Clean(ctx, targetTables); err != nil {
				return err
			}
		}

		if dryRun {
			log.Println("[SIMULATION] Dry-Run Mode Active: No data will be written.")
			for i, t := range targetTables {
				fmt.Printf("[%02d] %s (Dependencies: %v)\n", i+1, t.Name(), t.Dependencies)
			}
			return nil
		}

		log.Printf("Starting pump with count=%d per table...", targetCount)
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(targetCount * len(targetTables)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Processing: "
		})
		results, err := p.Pump(ctx, targetTables, targetCount, func() { bar.Incr() })
		uiprogress.Stop()
		if err != nil {
			return err
		}

		verified := p.VerifyInjection(ctx, results)
		printReport(verified)
		log.Printf("Pump Done! Time Elapsed: %s", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fillCmd)

	fillCmd.Flags().IntVar(&count, "count", 0, "Number of records to generate per table (overrides config)")
	fillCmd.Flags().BoolVar(&clean, "clean", false, "Clean tables before filling")
	fillCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the fill order without writing to the database")
	fillCmd.Flags().BoolVar(&explicitIDs, "explicit-ids", false, "Write identity columns instead of leaving them to the database")
	fillCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for reproducible data (0 picks a random seed)")
	fillCmd.Flags().StringSliceVarP(&tables, "tables", "t", nil, "Specific tables to process (comma-separated)")
	fillCmd.Flags().StringSliceVar(&schemas, "schema", nil, "Schemas to analyze (default: every user schema)")

	viper.BindPFlag("settings.default_count", fillCmd.Flags().Lookup("count"))
	viper.SetDefault("settings.default_count", 100)
}

func newPumper() *engine.Pumper {
	p := engine.NewPumper(Client, Provider.Builders())
	p.Logger = Logger
	return p
}

// analyzeTargets returns the tables to process in dependency order.
// --tables wins over settings.tables; neither means every table.
func analyzeTargets(ctx context.Context) ([]*schema.Table, error) {
	log.Println("Analyzing schema...")
	all, err := schema.Analyze(ctx, Provider.NewIntrospector(Client), schemas...)
	if err != nil {
		return nil, err
	}

	names := tables
	if len(names) == 0 {
		names = viper.GetStringSlice("settings.tables")
	}
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	var out []*schema.Table
	for _, t := range all {
		if want[strings.ToLower(t.Name())] || want[strings.ToLower(t.Ident().Table)] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no matching tables found for inputs: %v", names)
	}
	return out, nil
}

func printReport(results []schema.PumpResult) {
	fmt.Println("\nSummary Report (Dependency Order):")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Table", "Rows", "Target", "Status", "Error"})
	table.SetAutoWrapText(false)

	total := 0
	for i, r := range results {
		table.Append([]string{
			fmt.Sprintf("%02d", i+1), r.TableName, strconv.Itoa(r.Actual), strconv.Itoa(r.Target), r.Status, r.ErrorMsg,
		})
		total += r.Actual
	}
	table.SetFooter([]string{"", "", strconv.Itoa(total), "", "", ""})
	table.Render()
}
