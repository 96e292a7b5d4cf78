package cmd

import (
	"github.com/dot5enko/coltoolbox/toolbox"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "List the tables and columns of a dataset with their resolved types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			data, err := toolbox.Open(args[0], a.opener(), a.toolboxOptions(a.cfg.Fetch.Tables)...)
			if err != nil {
				return err
			}
			defer data.Close()

			data.Describe(a.out)

			for _, table := range data.TablesData() {
				if unresolved := table.Unresolved(); len(unresolved) > 0 {
					color.New(color.FgYellow).Fprintf(a.out, "table %s: %d columns have unsupported types and are skipped\n", table.Name(), len(unresolved))
				}
			}

			return nil
		},
	}
}

func (a *app) toolboxOptions(tables []string) []toolbox.Option {
	return []toolbox.Option{
		toolbox.WithLogger(a.logger),
		toolbox.WithStopOnError(a.cfg.Fetch.StopOnError),
		toolbox.WithTables(tables...),
	}
}
