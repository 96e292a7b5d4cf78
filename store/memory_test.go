package store

import (
	"testing"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/stretchr/testify/require"
)

func newSampleStore() (*MemoryStore, *MemoryTable) {
	ds := NewMemoryDataset("mem://sample")
	table := ds.AddTable("T", 3).
		AddColumn("A", []schema.ElementType{schema.Float64ElementType}, [][]float64{{1.5}, {2.5, 2.6}, {}}).
		AddColumn("B", []schema.ElementType{schema.Int32ElementType, schema.Uint16ElementType}, [][]float64{{7}, {7}, {7}})

	return NewMemoryStore().Add(ds), table
}

func TestMemoryStoreOpen(t *testing.T) {
	ms, _ := newSampleStore()

	ds, err := ms.Open("mem://sample")
	require.NoError(t, err)
	require.Equal(t, "mem://sample", ds.Path())

	names, err := ds.Tables()
	require.NoError(t, err)
	require.Equal(t, []string{"T"}, names)

	_, err = ms.Open("mem://missing")
	require.ErrorIs(t, err, ErrOpen)
}

func TestMemoryBindAndFetch(t *testing.T) {
	_, table := newSampleStore()

	_, err := table.Bind("A", schema.Int32ElementType)
	require.ErrorIs(t, err, ErrBind)

	_, err = table.Bind("C", schema.Float64ElementType)
	require.ErrorIs(t, err, ErrNotFound)

	binding, err := table.Bind("A", schema.Float64ElementType)
	require.NoError(t, err)
	require.Equal(t, schema.Float64ElementType, binding.Type())

	require.NoError(t, binding.Fetch(1))
	require.Equal(t, []float64{2.5, 2.6}, binding.Values())

	require.NoError(t, binding.Fetch(2))
	require.Empty(t, binding.Values())

	require.ErrorIs(t, binding.Fetch(3), ErrRowMissing)
	require.Equal(t, 3, table.FetchCalls())
}

func TestMemoryAmbiguousBinding(t *testing.T) {
	_, table := newSampleStore()

	asUint16, err := table.Bind("B", schema.Uint16ElementType)
	require.NoError(t, err)

	require.NoError(t, asUint16.Fetch(0))
	require.Equal(t, []uint16{7}, asUint16.Values())
}

func TestMemoryMissingAndCorruptRows(t *testing.T) {
	_, table := newSampleStore()
	table.MarkMissing("A", 0).MarkCorrupt("A", 1)

	binding, err := table.Bind("A", schema.Float64ElementType)
	require.NoError(t, err)

	require.ErrorIs(t, binding.Fetch(0), ErrRowMissing)
	require.ErrorIs(t, binding.Fetch(1), ErrDecode)
	require.Empty(t, binding.Values())
}

func TestMemoryClosedDataset(t *testing.T) {
	ms, _ := newSampleStore()

	ds, err := ms.Open("mem://sample")
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	_, err = ds.Tables()
	require.ErrorIs(t, err, ErrClosed)
}
