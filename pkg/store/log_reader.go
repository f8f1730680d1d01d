package store

import (
	"fmt"
	"io"
	"os"
)

// LogReader reads records back out of a data file, either sequentially from
// the start or randomly by offset.
type LogReader struct {
	file *os.File
}

// NewLogReader opens the data file for reading.
func NewLogReader(path string) (*LogReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &LogReader{file: file}, nil
}

// ReadAt decodes the record starting at the given offset.
func (r *LogReader) ReadAt(offset int64, size uint32) (*Record, error) {
	buf := make([]byte, size)
	if _, err := r.file.ReadAt(buf, offset); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: record at offset %d extends past end of file", ErrCorruption, offset)
		}
		return nil, err
	}
	rec, _, err := decodeRecord(buf)
	return rec, err
}

// Scan walks the log from the start, handing every decoded record with its
// offset and size to fn. It stops at the first record that fails to frame
// or verify and returns the offset of the damage, so the caller can
// truncate there; a clean scan returns the file size.
func (r *LogReader) Scan(fn func(rec *Record, offset int64, size uint32) error) (int64, error) {
	stat, err := r.file.Stat()
	if err != nil {
		return 0, err
	}
	fileSize := stat.Size()

	var offset int64
	head := make([]byte, recordHeaderSize)
	for offset < fileSize {
		if fileSize-offset < int64(recordHeaderSize) {
			return offset, ErrCorruption
		}
		if _, err := r.file.ReadAt(head, offset); err != nil {
			return offset, err
		}
		size, err := peekRecordSize(head)
		if err != nil {
			return offset, err
		}
		if offset+int64(size) > fileSize {
			return offset, ErrCorruption
		}
		buf := make([]byte, size)
		if _, err := r.file.ReadAt(buf, offset); err != nil {
			return offset, err
		}
		rec, _, err := decodeRecord(buf)
		if err != nil {
			return offset, err
		}
		if err := fn(rec, offset, uint32(size)); err != nil {
			return offset, err
		}
		offset += int64(size)
	}
	return offset, nil
}

// Close closes the underlying file.
func (r *LogReader) Close() error {
	return r.file.Close()
}
