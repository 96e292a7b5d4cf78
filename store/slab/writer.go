package slab

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dot5enko/coltoolbox/bits"
	"github.com/dot5enko/coltoolbox/compression"
	"github.com/dot5enko/coltoolbox/io"
	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Writer builds a slab dataset directory. Nothing is written to disk until
// Close.
type Writer struct {
	path  string
	codec compression.Codec

	meta   schema.DatasetMeta
	tables []*TableWriter
	closed bool
}

func Create(path string, codec compression.Codec) (*Writer, error) {

	if _, err := compression.Compress(codec, nil); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("unable to create dataset directory `%s`: %w", path, err)
	}

	return &Writer{
		path:  path,
		codec: codec,
		meta: schema.DatasetMeta{
			Version: schema.CurrentDatasetMetaVersion,
			Name:    filepath.Base(path),
			Uid:     uuid.New(),
		},
	}, nil
}

func (w *Writer) AddTable(name string, columns []store.ColumnSpec) (store.TableWriter, error) {

	if w.closed {
		return nil, store.ErrClosed
	}

	if name == "" {
		return nil, fmt.Errorf("table name is empty")
	}

	table := &TableWriter{
		meta: schema.TableMeta{
			Name: name,
			Uid:  uuid.New(),
		},
	}

	seen := map[string]struct{}{}

	for _, spec := range columns {

		if !spec.Type.Known() {
			return nil, fmt.Errorf("column `%s` of table `%s` has unsupported type %s", spec.Name, name, spec.Type)
		}

		if _, dup := seen[spec.Name]; dup || spec.Name == "" {
			return nil, fmt.Errorf("column name `%s` is empty or repeated in table `%s`", spec.Name, name)
		}
		seen[spec.Name] = struct{}{}

		table.columns = append(table.columns, &columnWriter{
			meta: schema.ColumnMeta{
				Name:  spec.Name,
				Uid:   uuid.New(),
				Type:  spec.Type,
				Codec: w.codec.String(),
			},
			offsets: []uint64{0},
			payload: bits.NewGrowingBuffer(1024, binary.LittleEndian),
		})
	}

	w.tables = append(w.tables, table)

	return table, nil
}

// Close writes every column slab and then the dataset metadata.
func (w *Writer) Close() (topErr error) {

	if w.closed {
		return nil
	}
	w.closed = true

	for _, table := range w.tables {

		tableMeta := table.meta
		tableMeta.Rows = table.rows

		for _, col := range table.columns {
			writeErr := writeColumnSlab(w.path, w.codec, col, table.rows)
			if writeErr != nil {
				topErr = multierr.Append(topErr, fmt.Errorf("unable to write column `%s` of table `%s`: %w", col.meta.Name, tableMeta.Name, writeErr))
				continue
			}

			tableMeta.Columns = append(tableMeta.Columns, col.meta)
		}

		w.meta.Tables = append(w.meta.Tables, tableMeta)
	}

	if topErr != nil {
		return topErr
	}

	metaBytes, marshalErr := json.MarshalIndent(w.meta, "", "  ")
	if marshalErr != nil {
		return marshalErr
	}

	if writeErr := os.WriteFile(metaPath(w.path), metaBytes, 0644); writeErr != nil {
		return writeErr
	}

	slog.Info("wrote slab dataset", "path", w.path, "tables", len(w.meta.Tables), "codec", w.codec.String())

	return nil
}

type TableWriter struct {
	meta    schema.TableMeta
	rows    int
	columns []*columnWriter
}

type columnWriter struct {
	meta schema.ColumnMeta

	flags    []byte
	offsets  []uint64
	elements uint64
	payload  bits.BitWriter
}

// WriteRow appends one row, values holding one slice per column of the
// column's element type. The row is rejected as a whole if any value does
// not fit its column.
func (t *TableWriter) WriteRow(values ...any) error {

	if len(values) != len(t.columns) {
		return fmt.Errorf("table `%s` has %d columns, got %d values", t.meta.Name, len(t.columns), len(values))
	}

	for i, col := range t.columns {
		if _, ok := store.SliceLen(values[i], col.meta.Type); !ok {
			return fmt.Errorf("column `%s` is %s, got %T", col.meta.Name, col.meta.Type, values[i])
		}
	}

	for i, col := range t.columns {
		col.append(values[i])
	}

	t.rows++

	return nil
}

func (t *TableWriter) WriteMissing() error {

	for _, col := range t.columns {
		col.flags = append(col.flags, rowMissing)
		col.offsets = append(col.offsets, col.elements)
	}

	t.rows++

	return nil
}

func (c *columnWriter) append(values any) {

	count := 0

	switch typed := values.(type) {
	case []float64:
		bits.PutElements(&c.payload, typed)
		count = len(typed)
	case []int32:
		bits.PutElements(&c.payload, typed)
		count = len(typed)
	case []uint32:
		bits.PutElements(&c.payload, typed)
		count = len(typed)
	case []uint16:
		bits.PutElements(&c.payload, typed)
		count = len(typed)
	}

	c.elements += uint64(count)
	c.flags = append(c.flags, rowPresent)
	c.offsets = append(c.offsets, c.elements)
}

func writeColumnSlab(dir string, codec compression.Codec, col *columnWriter, rows int) error {

	payload := col.payload.Bytes()

	compressed, compressErr := compression.Compress(codec, payload)
	if compressErr != nil {
		return compressErr
	}

	header := SlabHeader{
		Version:          CurrentSlabVersion,
		Uid:              col.meta.Uid,
		Type:             col.meta.Type,
		Codec:            codec,
		Rows:             uint32(rows),
		Elements:         col.elements,
		UncompressedSize: uint64(len(payload)),
		CompressedSize:   uint64(len(compressed)),
	}

	bw := bits.NewGrowingBuffer(header.PayloadOffset()+len(compressed), binary.LittleEndian)

	var headerBuffer [SlabHeaderFixedSize]byte
	if _, headerErr := header.WriteTo(headerBuffer[:]); headerErr != nil {
		return headerErr
	}

	bw.Write(headerBuffer[:])
	bw.Write(col.flags)
	for _, offset := range col.offsets {
		bw.PutUint64(offset)
	}
	bw.Write(compressed)

	file := io.NewFileReader(slabPath(dir, col.meta.Uid))

	if openErr := file.Open(false); openErr != nil {
		return openErr
	}
	defer file.Close()

	return file.WriteAt(bw.Bytes(), 0)
}
