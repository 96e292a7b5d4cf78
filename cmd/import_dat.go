package cmd

import (
	"fmt"
	"os"

	"github.com/dot5enko/coltoolbox/dat"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) importDatCommand() *cobra.Command {

	var (
		table     string
		chunkRows int
	)

	cmd := &cobra.Command{
		Use:   "import-dat <input.dat> <output>",
		Short: "Convert a dat sample file into a dataset of the configured backend",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {

			opts := dat.Options{
				Table:     a.cfg.Import.Table,
				ChunkRows: a.cfg.Import.ChunkRows,
				Logger:    a.logger,
			}
			if cmd.Flags().Changed("table") {
				opts.Table = table
			}
			if cmd.Flags().Changed("chunk-rows") {
				opts.ChunkRows = chunkRows
			}

			input, openErr := os.Open(args[0])
			if openErr != nil {
				return openErr
			}
			defer input.Close()

			writer, createErr := a.createWriter(args[1])
			if createErr != nil {
				return createErr
			}

			stats, convertErr := dat.Convert(input, writer, opts)
			if convertErr != nil {
				writer.Close()
				return fmt.Errorf("unable to convert %s: %w", args[0], convertErr)
			}

			if closeErr := writer.Close(); closeErr != nil {
				return closeErr
			}

			color.New(color.FgGreen).Fprintf(a.out, "wrote %d lines as %d rows of table %s (%d columns) to %s\n",
				stats.Lines, stats.Rows, opts.Table, len(stats.Columns), args[1])

			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "name of the table to create")
	cmd.Flags().IntVar(&chunkRows, "chunk-rows", 0, "lines stored per row")

	return cmd
}
