package slab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/dot5enko/coltoolbox/bits"
	"github.com/dot5enko/coltoolbox/compression"
	"github.com/dot5enko/coltoolbox/io"
	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Dataset is a slab dataset directory opened for reading. Column slabs are
// loaded from disk on first fetch and cached until Close or eviction.
type Dataset struct {
	path string
	meta schema.DatasetMeta

	loadGroup singleflight.Group
	cache     *columnCache

	lock   sync.RWMutex
	closed bool
}

type columnSlab struct {
	header  SlabHeader
	flags   []byte
	offsets []uint64
	payload []byte
}

// Open satisfies store.Opener. Loaded columns stay cached until Close.
func Open(path string) (store.Dataset, error) {
	return NewOpener(0)(path)
}

// NewOpener returns an opener whose datasets cache at most cacheBytes of
// decoded column data each, 0 meaning no limit.
func NewOpener(cacheBytes int64) store.Opener {
	return func(path string) (store.Dataset, error) {
		ds, err := open(path, cacheBytes)
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
}

func open(path string, cacheBytes int64) (*Dataset, error) {

	metaBytes, readErr := os.ReadFile(metaPath(path))
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrOpen, readErr)
	}

	result := &Dataset{
		path:  path,
		cache: newColumnCache(cacheBytes),
	}

	if decodeErr := json.Unmarshal(metaBytes, &result.meta); decodeErr != nil {
		return nil, fmt.Errorf("%w: invalid %s: %w", store.ErrOpen, MetaFileName, decodeErr)
	}

	if validateErr := result.meta.Validate(); validateErr != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrOpen, validateErr)
	}

	return result, nil
}

func (d *Dataset) Path() string {
	return d.path
}

func (d *Dataset) Meta() schema.DatasetMeta {
	return d.meta
}

// CacheStats reports the cached column slabs by column uid.
func (d *Dataset) CacheStats() map[uuid.UUID]CacheStats {
	return d.cache.stats()
}

func (d *Dataset) isClosed() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return d.closed
}

func (d *Dataset) Tables() ([]string, error) {
	if d.isClosed() {
		return nil, store.ErrClosed
	}

	names := make([]string, 0, len(d.meta.Tables))
	for _, table := range d.meta.Tables {
		names = append(names, table.Name)
	}
	return names, nil
}

func (d *Dataset) Table(name string) (store.Table, error) {
	if d.isClosed() {
		return nil, store.ErrClosed
	}

	for i := range d.meta.Tables {
		if d.meta.Tables[i].Name == name {
			return &Table{ds: d, meta: &d.meta.Tables[i]}, nil
		}
	}

	return nil, fmt.Errorf("%w: table `%s` in `%s`", store.ErrNotFound, name, d.path)
}

func (d *Dataset) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.closed = true
	d.cache.reset()

	return nil
}

// loadColumn returns the decoded slab of col, reading it from disk once.
func (d *Dataset) loadColumn(col schema.ColumnMeta, rows int) (*columnSlab, error) {

	if d.isClosed() {
		return nil, store.ErrClosed
	}

	if cached := d.cache.get(col.Uid); cached != nil {
		return cached, nil
	}

	v, err, _ := d.loadGroup.Do(col.Uid.String(), func() (any, error) {

		loaded, loadErr := readColumnSlab(d.path, col, rows)
		if loadErr != nil {
			return nil, fmt.Errorf("%w: column `%s`: %w", store.ErrDecode, col.Name, loadErr)
		}

		d.cache.put(col.Uid, loaded)

		return loaded, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*columnSlab), nil
}

func readColumnSlab(dir string, col schema.ColumnMeta, rows int) (*columnSlab, error) {

	fileReader := io.NewFileReader(slabPath(dir, col.Uid))
	if !fileReader.Exists() {
		return nil, fmt.Errorf("slab file %s does not exist", fileReader.Path())
	}

	if openErr := fileReader.Open(true); openErr != nil {
		return nil, openErr
	}
	defer fileReader.Close()

	fileSize, sizeErr := fileReader.Size()
	if sizeErr != nil {
		return nil, sizeErr
	}

	if fileSize < SlabHeaderFixedSize {
		return nil, fmt.Errorf("slab file is %d bytes, shorter than its header", fileSize)
	}

	headerBuffer := make([]byte, SlabHeaderFixedSize)
	if readErr := fileReader.ReadAt(headerBuffer, 0, SlabHeaderFixedSize); readErr != nil {
		return nil, fmt.Errorf("unable to read slab header : %s", readErr.Error())
	}

	result := &columnSlab{}

	if headerErr := result.header.FromBytes(bytes.NewReader(headerBuffer)); headerErr != nil {
		return nil, headerErr
	}

	header := &result.header

	if header.Uid != col.Uid || header.Type != col.Type {
		return nil, fmt.Errorf("slab %s holds %s, metadata expects %s %s", header.Uid, header.Type, col.Uid, col.Type)
	}

	if int(header.Rows) != rows {
		return nil, fmt.Errorf("slab has %d rows, table has %d", header.Rows, rows)
	}

	expectedSize := int64(header.PayloadOffset()) + int64(header.CompressedSize)
	if fileSize != expectedSize {
		return nil, fmt.Errorf("slab file is %d bytes, header describes %d", fileSize, expectedSize)
	}

	body := make([]byte, int(fileSize)-SlabHeaderFixedSize)
	if readErr := fileReader.ReadAt(body, SlabHeaderFixedSize, len(body)); readErr != nil {
		return nil, fmt.Errorf("unable to read slab body : %s", readErr.Error())
	}

	result.flags = body[:header.FlagsSize()]

	offsetsReader := bits.NewReader(bytes.NewReader(body[header.FlagsSize():]), binary.LittleEndian)
	result.offsets = make([]uint64, 0, int(header.Rows)+1)

	for i := 0; i <= int(header.Rows); i++ {
		offset, offsetErr := offsetsReader.ReadU64()
		if offsetErr != nil {
			return nil, offsetErr
		}
		result.offsets = append(result.offsets, offset)
	}

	compressed := body[header.FlagsSize()+header.OffsetsSize():]

	payload, decompressErr := compression.Decompress(header.Codec, compressed, int(header.UncompressedSize))
	if decompressErr != nil {
		return nil, decompressErr
	}
	result.payload = payload

	return result, nil
}

// elementRange returns the element positions of row in the payload.
func (s *columnSlab) elementRange(row int) (start, end int, err error) {

	if row < 0 || row >= len(s.flags) {
		return 0, 0, fmt.Errorf("%w: row %d of %d", store.ErrRowMissing, row, len(s.flags))
	}

	if s.flags[row] == rowMissing {
		return 0, 0, fmt.Errorf("%w: row %d is not stored", store.ErrRowMissing, row)
	}

	first, last := s.offsets[row], s.offsets[row+1]
	size := uint64(s.header.Type.Size())
	if first > last || last > s.header.Elements || last*size > uint64(len(s.payload)) {
		return 0, 0, fmt.Errorf("%w: row %d has invalid offsets [%d, %d) of %d elements", store.ErrDecode, row, first, last, s.header.Elements)
	}

	return int(first), int(last), nil
}

type Table struct {
	ds   *Dataset
	meta *schema.TableMeta
}

func (t *Table) Name() string {
	return t.meta.Name
}

func (t *Table) RowCount() int {
	return t.meta.Rows
}

func (t *Table) Columns() []string {
	names := make([]string, 0, len(t.meta.Columns))
	for _, col := range t.meta.Columns {
		names = append(names, col.Name)
	}
	return names
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.meta.Column(name)
	return ok
}

// Bind succeeds only for the element type the column was written with.
func (t *Table) Bind(column string, typ schema.ElementType) (store.Binding, error) {

	col, ok := t.meta.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: column `%s` in table `%s`", store.ErrNotFound, column, t.meta.Name)
	}

	if col.Type != typ {
		return nil, fmt.Errorf("%w: column `%s` is stored as %s, not %s", store.ErrBind, column, col.Type, typ)
	}

	switch typ {
	case schema.Float64ElementType:
		return &binding[float64]{table: t, column: col}, nil
	case schema.Int32ElementType:
		return &binding[int32]{table: t, column: col}, nil
	case schema.Uint32ElementType:
		return &binding[uint32]{table: t, column: col}, nil
	case schema.Uint16ElementType:
		return &binding[uint16]{table: t, column: col}, nil
	default:
		return nil, fmt.Errorf("%w: column `%s` as %s", store.ErrBind, column, typ)
	}
}

type binding[T schema.Element] struct {
	table  *Table
	column schema.ColumnMeta

	scratch []T
}

func (b *binding[T]) Column() string {
	return b.column.Name
}

func (b *binding[T]) Type() schema.ElementType {
	return b.column.Type
}

func (b *binding[T]) Fetch(row int) (err error) {

	b.scratch = b.scratch[:0]

	slab, loadErr := b.table.ds.loadColumn(b.column, b.table.meta.Rows)
	if loadErr != nil {
		return loadErr
	}

	start, end, rangeErr := slab.elementRange(row)
	if rangeErr != nil {
		return rangeErr
	}

	size := b.column.Type.Size()
	reader := bits.NewReader(bytes.NewReader(slab.payload[start*size:end*size]), binary.LittleEndian)

	b.scratch, err = bits.ReadElements(reader, end-start, b.scratch)
	if err != nil {
		b.scratch = b.scratch[:0]
		return fmt.Errorf("%w: row %d: %w", store.ErrDecode, row, err)
	}

	return nil
}

func (b *binding[T]) Values() any {
	return b.scratch
}
