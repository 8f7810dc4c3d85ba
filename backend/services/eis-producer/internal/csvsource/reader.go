// Package csvsource reads Hioki EIS exports row by row.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column positions in an export line. Column 3 is not used.
const (
	colFrequency = 0
	colR         = 1
	colX         = 2
	colT         = 4
	colRange     = 5
	minColumns   = 6
)

// Row is one parsed measurement line.
type Row struct {
	Index       int
	FrequencyHz float64
	ROhm        float64
	XOhm        float64
	TDegC       float64
	RangeOhm    float64
}

// RowError reports a line that could not be parsed. The ordinal is still consumed.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader yields rows after the header line.
type Reader struct {
	csv        *csv.Reader
	next       int
	headerRead bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return &Reader{csv: cr}
}

// Next returns the next row, a *RowError for an unparsable line, or io.EOF.
func (r *Reader) Next() (Row, error) {
	if !r.headerRead {
		r.headerRead = true
		if _, err := r.csv.Read(); err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return Row{}, err
			}
		}
	}

	record, err := r.csv.Read()
	if err == io.EOF {
		return Row{}, io.EOF
	}

	index := r.next
	r.next++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Row{}, &RowError{Index: index, Err: err}
		}
		return Row{}, err
	}
	return parseRecord(index, record)
}

func parseRecord(index int, record []string) (Row, error) {
	if len(record) < minColumns {
		return Row{}, &RowError{Index: index, Err: fmt.Errorf("want at least %d columns, got %d", minColumns, len(record))}
	}
	values := make([]float64, minColumns)
	for _, col := range []int{colFrequency, colR, colX, colT, colRange} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return Row{}, &RowError{Index: index, Err: fmt.Errorf("column %d: %w", col, err)}
		}
		values[col] = v
	}
	return Row{
		Index:       index,
		FrequencyHz: values[colFrequency],
		ROhm:        values[colR],
		XOhm:        values[colX],
		TDegC:       values[colT],
		RangeOhm:    values[colRange],
	}, nil
}
