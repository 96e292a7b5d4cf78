package cmd

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/coltoolbox/toolbox"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type fetchFlags struct {
	tables []string
	start  int
	end    int
	dump   bool
	stop   bool
}

func (a *app) fetchCommand() *cobra.Command {

	flags := fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Fetch rows into typed columns and print per column summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			tables := a.cfg.Fetch.Tables
			if len(flags.tables) > 0 {
				tables = flags.tables
			}

			opts := a.toolboxOptions(tables)
			if cmd.Flags().Changed("stop-on-error") {
				opts = append(opts, toolbox.WithStopOnError(flags.stop))
			}

			data, err := toolbox.Open(args[0], a.opener(), opts...)
			if err != nil {
				return err
			}
			defer data.Close()

			before := time.Now()

			var fetchErr error
			if cmd.Flags().Changed("end") {
				fetchErr = data.FetchRange(flags.start, flags.end)
			} else {
				fetchErr = data.FetchFrom(flags.start)
			}

			took := time.Since(before)

			a.printSummary(data, flags.dump)

			failures := multierr.Errors(fetchErr)
			if len(failures) > 0 {
				warn := color.New(color.FgYellow)
				warn.Fprintf(a.out, "%d fetches failed\n", len(failures))
				for _, failure := range failures {
					warn.Fprintf(a.out, "  %s\n", failure.Error())
				}
			}

			a.logger.Info("fetch finished", "took", took.String(), "failures", len(failures))

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&flags.tables, "table", "t", nil, "fetch only these tables, replaces fetch.tables")
	cmd.Flags().IntVar(&flags.start, "start", 0, "first row to fetch")
	cmd.Flags().IntVar(&flags.end, "end", 0, "row to stop before, defaults to each table's row count")
	cmd.Flags().BoolVar(&flags.dump, "dump", false, "dump fetched values")
	cmd.Flags().BoolVar(&flags.stop, "stop-on-error", false, "stop at the first failed fetch")

	return cmd
}

func (a *app) printSummary(data *toolbox.DatasetData, dump bool) {

	title := color.New(color.FgGreen, color.Bold)

	for _, table := range data.TablesData() {

		title.Fprintf(a.out, "%s\n", table.Name())

		for _, col := range table.TypedColumns() {

			bounds, ok := toolbox.Bounds(col)
			if ok {
				a.printf("  %-16s %-8s %8d values from %d rows, min %g max %g\n", col.Name(), col.Type(), col.Len(), len(col.Spans()), bounds.Min, bounds.Max)
			} else {
				a.printf("  %-16s %-8s %8d values from %d rows\n", col.Name(), col.Type(), col.Len(), len(col.Spans()))
			}

			if dump {
				spew.Fdump(a.out, columnValues(col))
			}
		}
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func columnValues(col toolbox.Column) any {
	switch typed := col.(type) {
	case *toolbox.ColumnData[float64]:
		return typed.Data()
	case *toolbox.ColumnData[int32]:
		return typed.Data()
	case *toolbox.ColumnData[uint32]:
		return typed.Data()
	case *toolbox.ColumnData[uint16]:
		return typed.Data()
	default:
		return nil
	}
}
