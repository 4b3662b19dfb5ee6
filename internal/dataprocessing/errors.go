package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a required column is not in the file.
	ErrMissingColumn = errors.New("missing column")
	// ErrTypeMismatch is returned when a column cannot be read as the expected shape.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedTimeEncoding is returned for time columns outside the known encodings.
	ErrUnsupportedTimeEncoding = errors.New("unsupported time encoding")
	// ErrEmptyInput signals a file with no trade and no depth rows.
	ErrEmptyInput = errors.New("no trade or depth rows")
)

// ColumnError describes a decode failure in a specific column.
// Row is -1 when the failure concerns the column as a whole.
type ColumnError struct {
	Column string
	Row    int
	Err    error
	Detail string
}

func (e *ColumnError) Error() string {
	msg := fmt.Sprintf("column %q: %v", e.Column, e.Err)
	if e.Row >= 0 {
		msg = fmt.Sprintf("column %q row %d: %v", e.Column, e.Row, e.Err)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

func missingColumn(name string) error {
	return &ColumnError{Column: name, Row: -1, Err: ErrMissingColumn}
}

func typeMismatch(name string, row int, format string, args ...interface{}) error {
	return &ColumnError{Column: name, Row: row, Err: ErrTypeMismatch, Detail: fmt.Sprintf(format, args...)}
}

func unsupportedEncoding(name string, vt ValueType) error {
	return &ColumnError{Column: name, Row: -1, Err: ErrUnsupportedTimeEncoding, Detail: "declared as " + vt.String()}
}
