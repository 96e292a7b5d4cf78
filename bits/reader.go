package bits

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/google/uuid"
)

var (
	ErrReadMismatch = errors.New("read size mismatch")
)

const MaxBinReaderBufferSize = 256

type BitsReader struct {
	readBuffer [MaxBinReaderBufferSize]byte

	buf   io.Reader
	order binary.ByteOrder
}

func NewReader(buf io.Reader, order binary.ByteOrder) *BitsReader {
	return &BitsReader{buf: buf, order: order}
}

func (r *BitsReader) readNextBytesIntoReadBuffer(size int) error {
	readBytes, err := io.ReadFull(r.buf, r.readBuffer[:size])

	if err != nil {
		if readBytes > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrReadMismatch
		}
		return err
	}

	return nil
}

func (r *BitsReader) ReadU8() (uint8, error) {
	err := r.readNextBytesIntoReadBuffer(1)

	if err != nil {
		return 0, err
	}

	return r.readBuffer[0], err
}

func (r *BitsReader) ReadU16() (uint16, error) {

	err := r.readNextBytesIntoReadBuffer(2)

	if err != nil {
		return 0, err
	}

	v := r.order.Uint16(r.readBuffer[:2])
	return v, err
}

func (r *BitsReader) MustReadU16() uint16 {
	u, er := r.ReadU16()
	if er != nil {
		panic(er)
	}
	return u
}

func (r *BitsReader) ReadUUID() (result uuid.UUID, err error) {
	err = r.ReadBytes(16, result[:])
	return result, err
}

func (r *BitsReader) ReadU32() (uint32, error) {
	readErr := r.readNextBytesIntoReadBuffer(4)
	if readErr != nil {
		return 0, readErr
	}
	v := r.order.Uint32(r.readBuffer[:4])
	return v, nil
}

func (r *BitsReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *BitsReader) ReadU64() (uint64, error) {

	readErr := r.readNextBytesIntoReadBuffer(8)
	if readErr != nil {
		return 0, readErr
	}

	v := r.order.Uint64(r.readBuffer[:8])
	return v, nil
}

func (r *BitsReader) ReadF64() (float64, error) {
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *BitsReader) ReadBytes(n int, out []byte) error {

	readBytes, err := io.ReadFull(r.buf, out[:n])

	if readBytes != n {
		return ErrReadMismatch
	}

	return err
}

func (r *BitsReader) Skip(n int) error {
	skipped, err := io.CopyN(io.Discard, r.buf, int64(n))
	if skipped != int64(n) {
		return ErrReadMismatch
	}
	return err
}

// ReadElements decodes count values of T, appending them to out.
func ReadElements[T schema.Element](r *BitsReader, count int, out []T) ([]T, error) {

	var sample T

	for i := 0; i < count; i++ {

		var (
			readErr error
			value   T
		)

		switch any(sample).(type) {
		case float64:
			var f float64
			f, readErr = r.ReadF64()
			value = T(f)
		case int32:
			var v int32
			v, readErr = r.ReadI32()
			value = T(v)
		case uint32:
			var v uint32
			v, readErr = r.ReadU32()
			value = T(v)
		case uint16:
			var v uint16
			v, readErr = r.ReadU16()
			value = T(v)
		}

		if readErr != nil {
			return out, readErr
		}

		out = append(out, value)
	}

	return out, nil
}
