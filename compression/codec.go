package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Codec uint8

const (
	NoneCodec Codec = iota
	Lz4Codec
	ZstdCodec
)

func (c Codec) String() string {
	switch c {
	case NoneCodec:
		return "none"
	case Lz4Codec:
		return "lz4"
	case ZstdCodec:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return NoneCodec, nil
	case "lz4":
		return Lz4Codec, nil
	case "zstd":
		return ZstdCodec, nil
	default:
		return NoneCodec, fmt.Errorf("unsupported compression codec `%s`", name)
	}
}

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, writeErr := zw.Write(src); writeErr != nil {
		return writeErr
	}

	flushErr := zw.Flush()

	if flushErr != nil {
		return flushErr
	}

	return zw.Close()
}

func DecompressLz4(src []byte, output *bytes.Buffer) error {
	zr := lz4.NewReader(bytes.NewReader(src))

	_, copyErr := io.Copy(output, zr)
	return copyErr
}

func CompressZstd(src []byte, output *bytes.Buffer) error {
	enc, encErr := zstd.NewWriter(nil)
	if encErr != nil {
		return encErr
	}
	defer enc.Close()

	output.Write(enc.EncodeAll(src, nil))
	return nil
}

func DecompressZstd(src []byte, output *bytes.Buffer) error {
	dec, decErr := zstd.NewReader(nil)
	if decErr != nil {
		return decErr
	}
	defer dec.Close()

	decoded, decodeErr := dec.DecodeAll(src, nil)
	if decodeErr != nil {
		return decodeErr
	}

	output.Write(decoded)
	return nil
}

func Compress(codec Codec, src []byte) ([]byte, error) {

	var output bytes.Buffer

	var err error

	switch codec {
	case NoneCodec:
		output.Write(src)
	case Lz4Codec:
		err = CompressLz4(src, &output)
	case ZstdCodec:
		err = CompressZstd(src, &output)
	default:
		err = fmt.Errorf("unsupported compression codec %s", codec)
	}

	if err != nil {
		return nil, err
	}

	return output.Bytes(), nil
}

// initial output capacity is bounded by the input so a bogus expected size
// does not allocate up front
const (
	maxPreallocRatio = 8
	preallocSlack    = 4096
)

// Decompress restores src and checks that exactly expectedSize bytes came out.
func Decompress(codec Codec, src []byte, expectedSize int) ([]byte, error) {

	if expectedSize < 0 {
		return nil, fmt.Errorf("invalid expected size %d", expectedSize)
	}

	output := bytes.NewBuffer(make([]byte, 0, min(expectedSize, len(src)*maxPreallocRatio+preallocSlack)))

	var err error

	switch codec {
	case NoneCodec:
		output.Write(src)
	case Lz4Codec:
		err = DecompressLz4(src, output)
	case ZstdCodec:
		err = DecompressZstd(src, output)
	default:
		err = fmt.Errorf("unsupported compression codec %s", codec)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to decompress %s payload: %w", codec, err)
	}

	if output.Len() != expectedSize {
		return nil, fmt.Errorf("decompressed size mismatch: got %d, expected %d", output.Len(), expectedSize)
	}

	return output.Bytes(), nil
}
