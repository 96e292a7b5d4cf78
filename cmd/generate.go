package cmd

import (
	"fmt"
	"math/rand"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type generateSpec struct {
	tables       int
	rows         int
	maxPerRow    int
	missingEvery int
	seed         int64
}

var generatedColumns = []store.ColumnSpec{
	{Name: "energy", Type: schema.Float64ElementType},
	{Name: "charge", Type: schema.Int32ElementType},
	{Name: "hits", Type: schema.Uint32ElementType},
	{Name: "truth", Type: schema.Uint16ElementType},
}

func (a *app) generateCommand() *cobra.Command {

	spec := generateSpec{}

	cmd := &cobra.Command{
		Use:   "generate <output>",
		Short: "Write a dataset of random rows, one column of every element type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			writer, createErr := a.createWriter(args[0])
			if createErr != nil {
				return createErr
			}

			if genErr := generateDataset(writer, spec); genErr != nil {
				writer.Close()
				return genErr
			}

			if closeErr := writer.Close(); closeErr != nil {
				return closeErr
			}

			color.New(color.FgGreen).Fprintf(a.out, "generated %d tables of %d rows in %s\n", spec.tables, spec.rows, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&spec.tables, "tables", 1, "number of tables")
	cmd.Flags().IntVar(&spec.rows, "rows", 1000, "rows per table")
	cmd.Flags().IntVar(&spec.maxPerRow, "per-row", 4, "maximum values per row and column")
	cmd.Flags().IntVar(&spec.missingEvery, "missing-every", 0, "write every n-th row as missing, 0 disables")
	cmd.Flags().Int64Var(&spec.seed, "seed", 1, "random seed")

	return cmd
}

func generateDataset(w store.DatasetWriter, spec generateSpec) error {

	if spec.maxPerRow < 0 {
		return fmt.Errorf("per-row must not be negative")
	}

	rng := rand.New(rand.NewSource(spec.seed))

	for t := 0; t < spec.tables; t++ {

		table, addErr := w.AddTable(fmt.Sprintf("table_%d", t), generatedColumns)
		if addErr != nil {
			return addErr
		}

		for row := 0; row < spec.rows; row++ {

			if spec.missingEvery > 0 && (row+1)%spec.missingEvery == 0 {
				if err := table.WriteMissing(); err != nil {
					return err
				}
				continue
			}

			if err := table.WriteRow(randomRow(rng, spec.maxPerRow)...); err != nil {
				return err
			}
		}
	}

	return nil
}

func randomRow(rng *rand.Rand, maxPerRow int) []any {

	size := rng.Intn(maxPerRow + 1)

	energy := make([]float64, size)
	charge := make([]int32, size)
	hits := make([]uint32, size)

	for i := 0; i < size; i++ {
		energy[i] = rng.Float64() * 50000
		charge[i] = int32(rng.Int63n(3)) - 1
		hits[i] = uint32(rng.Int63n(50000))
	}

	return []any{energy, charge, hits, []uint16{uint16(rng.Intn(2))}}
}
