package toolbox

import (
	"errors"
	"fmt"

	"github.com/dot5enko/coltoolbox/store"
)

var (
	ErrOpen            = store.ErrOpen
	ErrNotFound        = store.ErrNotFound
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrRowMissing      = store.ErrRowMissing
	ErrDecode          = store.ErrDecode
	ErrUnresolvedType  = errors.New("unresolved element type")
	ErrTypeMismatch    = errors.New("element type mismatch")
)

// FetchError reports a failed fetch of one row of one column. Err is one of
// ErrIndexOutOfRange, ErrRowMissing or ErrDecode, possibly wrapped.
type FetchError struct {
	Table  string
	Column string
	Row    int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch row %d of %s.%s: %s", e.Row, e.Table, e.Column, e.Err.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyStoreErr makes sure a store failure matches ErrRowMissing or
// ErrDecode.
func classifyStoreErr(err error) error {
	if errors.Is(err, ErrRowMissing) || errors.Is(err, ErrDecode) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDecode, err)
}
