package slab

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dot5enko/coltoolbox/bits"
	"github.com/dot5enko/coltoolbox/compression"
	"github.com/dot5enko/coltoolbox/schema"
	"github.com/google/uuid"
)

// one column of one table on disk

// *--------------------------------*
// | version, uid, type, codec		|
// | rows, elements, payload sizes	|
// *--------------------------------*
// | row flags, a byte per row		|
// *--------------------------------*
// | element offsets, rows + 1 u64	|
// *--------------------------------*
// | compressed payload				|
// *--------------------------------*

const CurrentSlabVersion = 1

const SlabHeaderFixedSize = 2 + 16 + 1 + 1 + 4 + 8 + 8 + 8

// MaxPayloadSize bounds the decompressed payload of a single slab.
const MaxPayloadSize = 1 << 32

const (
	rowMissing uint8 = 0
	rowPresent uint8 = 1
)

type SlabHeader struct {
	Version uint16

	Uid uuid.UUID

	Type  schema.ElementType
	Codec compression.Codec

	Rows     uint32
	Elements uint64

	UncompressedSize uint64
	CompressedSize   uint64
}

func (header *SlabHeader) FlagsSize() int {
	return int(header.Rows)
}

func (header *SlabHeader) OffsetsSize() int {
	return (int(header.Rows) + 1) * 8
}

// PayloadOffset is where the compressed payload starts in the slab file.
func (header *SlabHeader) PayloadOffset() int {
	return SlabHeaderFixedSize + header.FlagsSize() + header.OffsetsSize()
}

func (header *SlabHeader) FromBytes(input io.Reader) (topErr error) {

	reader := bits.NewReader(input, binary.LittleEndian)

	header.Version, topErr = reader.ReadU16()
	if topErr != nil {
		return topErr
	}

	if header.Version != CurrentSlabVersion {
		return fmt.Errorf("invalid version %d. Supported versions: %d ", header.Version, CurrentSlabVersion)
	}

	header.Uid, topErr = reader.ReadUUID()
	if topErr != nil {
		return topErr
	}

	typ, typeErr := reader.ReadU8()
	if typeErr != nil {
		return typeErr
	}
	header.Type = schema.ElementType(typ)

	if !header.Type.Known() {
		return fmt.Errorf("unsupported element type %d", typ)
	}

	codec, codecErr := reader.ReadU8()
	if codecErr != nil {
		return codecErr
	}
	header.Codec = compression.Codec(codec)

	header.Rows, topErr = reader.ReadU32()
	if topErr != nil {
		return topErr
	}

	header.Elements, topErr = reader.ReadU64()
	if topErr != nil {
		return topErr
	}

	header.UncompressedSize, topErr = reader.ReadU64()
	if topErr != nil {
		return topErr
	}

	header.CompressedSize, topErr = reader.ReadU64()
	if topErr != nil {
		return topErr
	}

	size := uint64(header.Type.Size())

	if header.Elements > math.MaxInt/size || header.UncompressedSize > MaxPayloadSize {
		return fmt.Errorf("payload of %d %s elements (%d bytes) exceeds the %d byte limit", header.Elements, header.Type, header.UncompressedSize, uint64(MaxPayloadSize))
	}

	if header.UncompressedSize != header.Elements*size {
		return fmt.Errorf("payload size %d does not hold %d %s elements", header.UncompressedSize, header.Elements, header.Type)
	}

	if header.Codec == compression.NoneCodec && header.CompressedSize != header.UncompressedSize {
		return fmt.Errorf("uncompressed payload is %d bytes, header describes %d", header.CompressedSize, header.UncompressedSize)
	}

	return nil
}

func (header *SlabHeader) WriteTo(buffer []byte) (int, error) {

	if len(buffer) < SlabHeaderFixedSize {
		return 0, fmt.Errorf("slab header needs %d bytes, buffer has %d", SlabHeaderFixedSize, len(buffer))
	}

	bw := bits.NewEncodeBuffer(buffer, binary.LittleEndian)

	bw.PutUint16(header.Version)
	bw.PutUUID(header.Uid)
	bw.WriteByte(uint8(header.Type))
	bw.WriteByte(uint8(header.Codec))
	bw.PutUint32(header.Rows)
	bw.PutUint64(header.Elements)
	bw.PutUint64(header.UncompressedSize)
	bw.PutUint64(header.CompressedSize)

	return bw.Position(), nil
}
