package io

import (
	"errors"
	"os"
)

var ErrNotOpened = errors.New("file not opened")

type FileReader struct {
	path   string
	file   *os.File
	opened bool

	exists bool
}

func NewFileReader(path string) *FileReader {

	_, err := os.Stat(path)

	freader := &FileReader{
		path:   path,
		exists: err == nil,
	}

	return freader
}

func (f *FileReader) Exists() bool {
	return f.exists
}

func (f *FileReader) Path() string {
	return f.path
}

// Open opens the file read only, or truncates it for writing.
func (f *FileReader) Open(readOnly bool) (topErr error) {

	var perm os.FileMode = 0644

	if readOnly {
		f.file, topErr = os.OpenFile(f.path, os.O_RDONLY, perm)
	} else {
		f.file, topErr = os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	}

	if topErr == nil {
		f.opened = true
		f.exists = true
	}

	return topErr

}

func (f *FileReader) Close() error {
	if !f.opened {
		return nil
	}

	f.opened = false
	return f.file.Close()
}

func (f *FileReader) Raw() *os.File {
	return f.file
}

func (f *FileReader) Size() (int64, error) {
	if !f.opened {
		return 0, ErrNotOpened
	}

	stat, err := f.file.Stat()
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}

func (f *FileReader) ReadAt(out []byte, off, length int) (err error) {
	if !f.opened {
		return ErrNotOpened
	}

	var readBytes int
	readBytes, err = f.file.ReadAt(out[:length], int64(off))

	if readBytes != length {
		return errors.New("read bytes mismatch")
	}

	return nil
}

func (f *FileReader) WriteAt(in []byte, off int) (err error) {
	if !f.opened {
		return ErrNotOpened
	}

	var writtenBytes int
	writtenBytes, err = f.file.WriteAt(in, int64(off))
	if err != nil {
		return err
	}

	if writtenBytes != len(in) {
		return errors.New("written bytes mismatch")
	}

	return nil
}
