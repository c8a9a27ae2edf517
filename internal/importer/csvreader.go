package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingHeader is returned when the file has no header row.
var ErrMissingHeader = errors.New("CSV file is empty or has no header row")

// MalformedRecordError reports a record the CSV parser could not read.
type MalformedRecordError struct {
	Err error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("Malformed CSV record: %v", e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// RecordReader yields header-keyed rows from a CSV stream.
type RecordReader struct {
	r      *csv.Reader
	header []string
}

// NewRecordReader strips a UTF-8 BOM, reads the header row and prepares the reader.
func NewRecordReader(src io.Reader) (*RecordReader, error) {
	br := stripUTF8BOM(bufio.NewReader(src))

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = false
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, ErrMissingHeader
	}
	return &RecordReader{r: r, header: header}, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// Header returns the trimmed header row.
func (rr *RecordReader) Header() []string {
	return rr.header
}

// Next returns the next data row keyed by header. It returns io.EOF at the end
// of input and *MalformedRecordError for a record that could not be parsed, in
// which case reading may continue. Other errors are I/O failures.
func (rr *RecordReader) Next() (map[string]string, error) {
	record, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &MalformedRecordError{Err: parseErr.Err}
		}
		return nil, err
	}

	row := make(map[string]string, len(rr.header))
	for i, name := range rr.header {
		if i >= len(record) {
			break
		}
		if existing, ok := row[name]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		row[name] = record[i]
	}
	return row, nil
}
