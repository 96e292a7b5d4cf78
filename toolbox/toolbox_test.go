package toolbox

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var (
	f64 = []schema.ElementType{schema.Float64ElementType}
	i32 = []schema.ElementType{schema.Int32ElementType}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleStore holds table "T" with 3 rows: A (Float64) {1.5}, {2.5, 2.6}, {}
// and B (Int32) {7} on every row.
func sampleStore() (*store.MemoryStore, *store.MemoryTable) {
	ds := store.NewMemoryDataset("mem://sample")
	table := ds.AddTable("T", 3).
		AddColumn("A", f64, [][]float64{{1.5}, {2.5, 2.6}, {}}).
		AddColumn("B", i32, [][]float64{{7}, {7}, {7}})

	return store.NewMemoryStore().Add(ds), table
}

func openSample(t *testing.T, opts ...Option) (*DatasetData, *store.MemoryTable) {
	ms, table := sampleStore()

	opts = append([]Option{WithLogger(quietLogger())}, opts...)

	data, err := Open("mem://sample", ms.Open, opts...)
	require.NoError(t, err)

	return data, table
}

func TestFetchAllScenario(t *testing.T) {
	data, _ := openSample(t)

	require.NoError(t, data.FetchAll())

	table, err := data.TableData("T")
	require.NoError(t, err)

	a, err := Typed[float64](table, "A")
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, 2.6}, a.Data())

	b, err := Typed[int32](table, "B")
	require.NoError(t, err)
	require.Equal(t, []int32{7, 7, 7}, b.Data())

	// row 2 delivered nothing for A but is still recorded as fetched
	require.Equal(t, []RowSpan{{Row: 0, Start: 0, End: 1}, {Row: 1, Start: 1, End: 3}, {Row: 2, Start: 3, End: 3}}, a.Spans())

	row, ok := a.Row(1)
	require.True(t, ok)
	require.Equal(t, []float64{2.5, 2.6}, row)
}

func TestOpenFailure(t *testing.T) {
	ms, _ := sampleStore()

	data, err := Open("mem://bad-path", ms.Open, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrOpen)
	require.Nil(t, data)

	handle, err := OpenHandle("mem://bad-path", ms.Open, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrOpen)
	require.Nil(t, handle)
}

func TestMissingTableReturnsEmptyDefault(t *testing.T) {
	data, _ := openSample(t)

	table, err := data.TableData("missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NotNil(t, table)
	require.True(t, table.IsEmpty())
	require.Zero(t, table.RowCount())
	require.Empty(t, table.TypedColumns())
	require.NoError(t, data.FetchEvent(0, table))

	handle, err := data.Table("missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, handle.IsEmpty())

	_, err = data.TableDataAt(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = data.TableAt(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFetchRowOutOfRangeDoesNotMutate(t *testing.T) {
	data, memTable := openSample(t)

	table, err := data.TableData("T")
	require.NoError(t, err)

	a, err := Typed[float64](table, "A")
	require.NoError(t, err)

	require.NoError(t, a.FetchRow(0))
	callsBefore := memTable.FetchCalls()

	for _, row := range []int{-1, 3, 100} {
		fetchErr := a.FetchRow(row)
		require.ErrorIs(t, fetchErr, ErrIndexOutOfRange)

		var typedErr *FetchError
		require.True(t, errors.As(fetchErr, &typedErr))
		require.Equal(t, row, typedErr.Row)
		require.Equal(t, "A", typedErr.Column)
		require.Equal(t, "T", typedErr.Table)
	}

	require.Equal(t, []float64{1.5}, a.Data())
	require.Len(t, a.Spans(), 1)
	require.Equal(t, callsBefore, memTable.FetchCalls())
}

func TestResolvePriorityAndDeterminism(t *testing.T) {
	ds := store.NewMemoryDataset("mem://probe")
	table := ds.AddTable("P", 1).
		AddColumn("all", []schema.ElementType{schema.Uint16ElementType, schema.Uint32ElementType, schema.Int32ElementType, schema.Float64ElementType}, [][]float64{{1}}).
		AddColumn("ints", []schema.ElementType{schema.Uint16ElementType, schema.Int32ElementType}, [][]float64{{1}}).
		AddColumn("unsigned", []schema.ElementType{schema.Uint16ElementType, schema.Uint32ElementType}, [][]float64{{1}}).
		AddColumn("short", []schema.ElementType{schema.Uint16ElementType}, [][]float64{{1}}).
		AddColumn("bool", nil, [][]float64{{1}})

	expected := map[string]schema.ElementType{
		"all":      schema.Float64ElementType,
		"ints":     schema.Int32ElementType,
		"unsigned": schema.Uint32ElementType,
		"short":    schema.Uint16ElementType,
		"bool":     schema.UnknownElementType,
		"absent":   schema.UnknownElementType,
	}

	for column, typ := range expected {
		first := Resolve(table, column)
		require.Equal(t, typ, first, column)
		require.Equal(t, first, Resolve(table, column), column)
	}

	require.Equal(t, schema.UnknownElementType, Resolve(nil, "all"))
}

func TestUnresolvedColumnIsDropped(t *testing.T) {
	ds := store.NewMemoryDataset("mem://drop")
	ds.AddTable("T", 2).
		AddColumn("x", f64, [][]float64{{1}, {2}}).
		AddColumn("flag", nil, [][]float64{{1}, {0}}).
		AddColumn("n", i32, [][]float64{{3}, {4}})

	data, err := Open("mem://drop", store.NewMemoryStore().Add(ds).Open, WithLogger(quietLogger()))
	require.NoError(t, err)

	table, err := data.TableData("T")
	require.NoError(t, err)

	require.Equal(t, 3, table.NumColumns())
	require.Len(t, table.TypedColumns(), 2)
	require.Equal(t, []string{"flag"}, table.Unresolved())

	_, err = table.ColumnData("flag")
	require.ErrorIs(t, err, ErrNotFound)

	// the descriptor is still there
	handle, err := table.Column("flag")
	require.NoError(t, err)
	require.True(t, handle.IsBound())

	require.NoError(t, data.FetchAll())
}

func TestLookupByNameAndIndexAgree(t *testing.T) {
	data, _ := openSample(t)

	for i, handle := range data.Tables() {
		byName, err := data.Table(handle.Name())
		require.NoError(t, err)
		byIndex, err := data.TableAt(i)
		require.NoError(t, err)
		require.Same(t, byName, byIndex)

		for j, col := range byName.Columns() {
			colByName, err := byName.Column(col.Name())
			require.NoError(t, err)
			colByIndex, err := byName.ColumnAt(j)
			require.NoError(t, err)
			require.Equal(t, colByName, colByIndex)
		}
	}

	table, err := data.TableData("T")
	require.NoError(t, err)

	for i, col := range table.TypedColumns() {
		byName, err := table.ColumnData(col.Name())
		require.NoError(t, err)
		byIndex, err := table.ColumnDataAt(i)
		require.NoError(t, err)
		require.Same(t, byName, byIndex)
	}

	a, err := TypedAt[float64](table, 0)
	require.NoError(t, err)
	aByName, err := Typed[float64](table, "A")
	require.NoError(t, err)
	require.Same(t, a, aByName)

	_, err = table.ColumnAt(2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	absent, err := table.Column("Z")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, absent.IsBound())
	require.Empty(t, absent.Name())
}

func TestTypeMismatchIsAnError(t *testing.T) {
	data, _ := openSample(t)

	table, err := data.TableData("T")
	require.NoError(t, err)

	col, err := Typed[int32](table, "A")
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.Nil(t, col)

	_, err = TypedAt[uint16](table, 1)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Typed[float64](table, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRangeFetchMatchesPrefixFetch(t *testing.T) {
	build := func() *store.MemoryStore {
		ds := store.NewMemoryDataset("mem://range")
		ds.AddTable("T", 6).
			AddColumn("v", f64, [][]float64{{0}, {1, 1.5}, {}, {3}, {4, 4.5, 4.75}, {5}}).
			AddColumn("n", []schema.ElementType{schema.Uint16ElementType}, [][]float64{{10}, {11}, {12}, {13}, {14}, {15}})
		return store.NewMemoryStore().Add(ds)
	}

	const a, b = 2, 5

	ranged, err := Open("mem://range", build().Open, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, ranged.FetchRange(a, b))

	prefix, err := Open("mem://range", build().Open, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, prefix.FetchRange(0, b))

	rangedTable, _ := ranged.TableData("T")
	prefixTable, _ := prefix.TableData("T")

	for _, name := range []string{"v", "n"} {
		rangedCol, err := rangedTable.ColumnData(name)
		require.NoError(t, err)
		prefixCol, err := prefixTable.ColumnData(name)
		require.NoError(t, err)

		for row := a; row < b; row++ {
			require.Equal(t, rowValues(t, prefixCol, row), rowValues(t, rangedCol, row), "%s row %d", name, row)
		}
	}

	v, err := Typed[float64](rangedTable, "v")
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4, 4.5, 4.75}, v.Data())
}

func rowValues(t *testing.T, col Column, row int) []float64 {
	t.Helper()

	values := Float64s(col)
	for _, span := range col.Spans() {
		if span.Row == row {
			return values[span.Start:span.End]
		}
	}

	t.Fatalf("row %d was not fetched into %s", row, col.Name())
	return nil
}

func TestDuplicateTablesFirstWins(t *testing.T) {
	ds := store.NewMemoryDataset("mem://dup")
	ds.AddTable("T", 3).AddColumn("x", f64, [][]float64{{1}, {2}, {3}})
	ds.AddTable("U", 1).AddColumn("y", f64, [][]float64{{1}})
	ds.AddTable("T", 5).AddColumn("x", f64, [][]float64{{1}, {2}, {3}, {4}, {5}})

	data, err := Open("mem://dup", store.NewMemoryStore().Add(ds).Open, WithLogger(quietLogger()))
	require.NoError(t, err)

	require.Equal(t, 2, data.NumTables())

	first, err := data.TableAt(0)
	require.NoError(t, err)
	require.Equal(t, "T", first.Name())
	require.Equal(t, 3, first.RowCount())

	second, err := data.TableAt(1)
	require.NoError(t, err)
	require.Equal(t, "U", second.Name())

	require.NoError(t, data.FetchAll())

	table, _ := data.TableData("T")
	x, err := Typed[float64](table, "x")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, x.Data())
}

func TestFetchFailuresAreCollected(t *testing.T) {
	data, memTable := openSample(t)
	memTable.MarkMissing("A", 0).MarkCorrupt("B", 1)

	err := data.FetchAll()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRowMissing)
	require.ErrorIs(t, err, ErrDecode)
	require.Len(t, multierr.Errors(err), 2)

	table, _ := data.TableData("T")

	a, _ := Typed[float64](table, "A")
	require.Equal(t, []float64{2.5, 2.6}, a.Data())

	b, _ := Typed[int32](table, "B")
	require.Equal(t, []int32{7, 7}, b.Data())
	require.Equal(t, []int{0, 2}, []int{b.Spans()[0].Row, b.Spans()[1].Row})
}

func TestStopOnError(t *testing.T) {
	data, memTable := openSample(t, WithStopOnError(true))
	memTable.MarkMissing("A", 1)

	err := data.FetchAll()
	require.ErrorIs(t, err, ErrRowMissing)
	require.Len(t, multierr.Errors(err), 1)

	table, _ := data.TableData("T")

	// row 1 stopped at A, B never saw it
	b, _ := Typed[int32](table, "B")
	require.Equal(t, []int32{7}, b.Data())
}

func TestFetchFromHonoursStopOnError(t *testing.T) {
	data, memTable := openSample(t)
	memTable.MarkMissing("A", 1)

	err := data.FetchFrom(1)
	require.ErrorIs(t, err, ErrRowMissing)
	require.Len(t, multierr.Errors(err), 1)

	table, _ := data.TableData("T")
	b, _ := Typed[int32](table, "B")
	require.Equal(t, []int32{7, 7}, b.Data())
	require.Equal(t, 1, b.Spans()[0].Row)

	stopping, stoppingTable := openSample(t, WithStopOnError(true))
	stoppingTable.MarkMissing("A", 1)

	err = stopping.FetchFrom(1)
	require.ErrorIs(t, err, ErrRowMissing)

	table, _ = stopping.TableData("T")
	b, _ = Typed[int32](table, "B")
	require.Empty(t, b.Data())
}

func TestFetchRangePastEnd(t *testing.T) {
	data, _ := openSample(t)

	err := data.FetchRange(2, 4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.Len(t, multierr.Errors(err), 2)

	table, _ := data.TableData("T")
	b, _ := Typed[int32](table, "B")
	require.Equal(t, []int32{7}, b.Data())
}

func TestWithTables(t *testing.T) {
	ds := store.NewMemoryDataset("mem://select")
	ds.AddTable("T", 1).AddColumn("x", f64, [][]float64{{1}})
	ds.AddTable("U", 1).AddColumn("y", f64, [][]float64{{1}})

	data, err := Open("mem://select", store.NewMemoryStore().Add(ds).Open,
		WithLogger(quietLogger()),
		WithTables("U", "nope"),
	)
	require.NoError(t, err)
	require.Equal(t, 1, data.NumTables())

	_, err = data.TableData("U")
	require.NoError(t, err)

	_, err = data.TableData("T")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDataViewIsReadOnly(t *testing.T) {
	data, _ := openSample(t)
	require.NoError(t, data.FetchEvent(1, mustTable(t, data, "T")))

	a, _ := Typed[float64](mustTable(t, data, "T"), "A")

	view := a.Data()
	_ = append(view, 99)

	require.NoError(t, a.FetchRow(0))
	require.Equal(t, []float64{2.5, 2.6, 1.5}, a.Data())
}

func TestFloat64sAndBounds(t *testing.T) {
	data, _ := openSample(t)
	require.NoError(t, data.FetchAll())

	table := mustTable(t, data, "T")

	b, err := table.ColumnData("B")
	require.NoError(t, err)
	require.Equal(t, schema.Int32ElementType, b.Type())
	require.Equal(t, []float64{7, 7, 7}, Float64s(b))

	a, err := table.ColumnData("A")
	require.NoError(t, err)

	bounds, ok := Bounds(a)
	require.True(t, ok)
	require.Equal(t, 1.5, bounds.Min)
	require.Equal(t, 2.6, bounds.Max)
}

func TestDescribe(t *testing.T) {
	data, _ := openSample(t)
	require.NoError(t, data.FetchAll())

	var out bytes.Buffer
	data.Describe(&out)

	require.Contains(t, out.String(), "contents of dataset mem://sample: 1 tables")
	require.Contains(t, out.String(), "column A (Float64): 3 values from 3 rows")
	require.Contains(t, out.String(), "column B (Int32): 3 values from 3 rows")

	out.Reset()
	data.DatasetHandle.Describe(&out)
	require.Contains(t, out.String(), "table T: 3 rows, 2 columns")
}

func TestColumnHandle(t *testing.T) {
	_, memTable := sampleStore()

	bound := NewColumnHandle("A", memTable)
	require.True(t, bound.IsBound())
	require.Equal(t, "A", bound.Name())
	require.Equal(t, "T", bound.TableName())

	unbound := NewColumnHandle("Z", memTable)
	require.False(t, unbound.IsBound())

	var absent ColumnHandle
	require.False(t, absent.IsBound())
	require.Empty(t, absent.TableName())
}

func TestNewColumnDataRejectsUnknownColumn(t *testing.T) {
	_, memTable := sampleStore()

	_, err := NewColumnData[float64]("Z", memTable)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = NewColumnData[uint16]("A", memTable)
	require.ErrorIs(t, err, store.ErrBind)
}

func mustTable(t *testing.T, data *DatasetData, name string) *TableData {
	t.Helper()

	table, err := data.TableData(name)
	require.NoError(t, err)
	return table
}

// mistypedTable binds every column to a binding whose values never match
// the requested element type.
type mistypedTable struct {
	store.Table
}

func (m mistypedTable) Bind(column string, typ schema.ElementType) (store.Binding, error) {
	return &mistypedBinding{column: column, typ: typ}, nil
}

type mistypedBinding struct {
	column string
	typ    schema.ElementType
}

func (b *mistypedBinding) Column() string           { return b.column }
func (b *mistypedBinding) Type() schema.ElementType { return b.typ }
func (b *mistypedBinding) Fetch(row int) error      { return nil }
func (b *mistypedBinding) Values() any              { return []float32{1} }

func TestFetchRowRejectsMistypedValues(t *testing.T) {
	_, memTable := sampleStore()

	col, err := NewColumnData[float64]("A", mistypedTable{memTable})
	require.NoError(t, err)

	err = col.FetchRow(0)
	require.ErrorIs(t, err, ErrDecode)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, "A", fetchErr.Column)
	require.Equal(t, 0, fetchErr.Row)

	require.Zero(t, col.Len())
	require.Empty(t, col.Spans())
}

func TestZeroTableHandleIsEmpty(t *testing.T) {
	var table TableHandle

	require.True(t, table.IsEmpty())
	require.Zero(t, table.RowCount())

	require.NotPanics(t, func() {
		_, err := table.Column("x")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = table.ColumnAt(0)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}
