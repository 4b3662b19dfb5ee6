package dataprocessing

import (
	"fmt"
	"math"
)

// ValueType is the declared type of a column.
type ValueType int

const (
	ValueUnknown ValueType = iota
	ValueString
	ValueBool
	ValueInt32
	ValueInt64
	ValueFloat32
	ValueFloat64
	ValueTimestampMillis
	ValueTimestampMicros
	ValueTimestampNanos
)

func (t ValueType) String() string {
	switch t {
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueInt32:
		return "int32"
	case ValueInt64:
		return "int64"
	case ValueFloat32:
		return "float32"
	case ValueFloat64:
		return "float64"
	case ValueTimestampMillis:
		return "timestamp[ms]"
	case ValueTimestampMicros:
		return "timestamp[us]"
	case ValueTimestampNanos:
		return "timestamp[ns]"
	default:
		return "unknown"
	}
}

// Column is one named column of a Table. A nil entry in Values is a null.
//
// Non-null values use the Go type matching Type: string for ValueString,
// int32 for ValueInt32, int64 for ValueInt64 and all timestamp types,
// float32 for ValueFloat32, float64 for ValueFloat64 and bool for ValueBool.
type Column struct {
	Name   string
	Type   ValueType
	Values []interface{}
}

// Table is an in-memory columnar view of one input file.
type Table struct {
	rows    int
	columns map[string]*Column
	names   []string
}

// NewTable builds a table. Every column must carry exactly rows values.
func NewTable(rows int, columns ...*Column) (*Table, error) {
	t := &Table{rows: rows, columns: make(map[string]*Column, len(columns))}
	for _, c := range columns {
		if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d values, table has %d rows", c.Name, len(c.Values), rows)
		}
		if _, dup := t.columns[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.columns[c.Name] = c
		t.names = append(t.names, c.Name)
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// ColumnNames returns column names in file order.
func (t *Table) ColumnNames() []string {
	return append([]string(nil), t.names...)
}

// timeEncoding is how a time column stores its epoch.
type timeEncoding int

const (
	epochNanos timeEncoding = iota
	epochMicros
	epochMillis
	epochMillisFloat
)

func detectTimeEncoding(vt ValueType) (timeEncoding, bool) {
	switch vt {
	case ValueTimestampNanos:
		return epochNanos, true
	case ValueTimestampMicros:
		return epochMicros, true
	case ValueTimestampMillis, ValueInt64:
		return epochMillis, true
	case ValueFloat64:
		return epochMillisFloat, true
	default:
		return 0, false
	}
}

// timeColumn reads any supported time encoding as a microsecond epoch.
type timeColumn struct {
	col      *Column
	encoding timeEncoding
}

func newTimeColumn(col *Column) (*timeColumn, error) {
	enc, ok := detectTimeEncoding(col.Type)
	if !ok {
		return nil, unsupportedEncoding(col.Name, col.Type)
	}
	return &timeColumn{col: col, encoding: enc}, nil
}

// Micros returns the normalized value of row. ok is false for nulls and for
// float values that do not name an instant.
func (c *timeColumn) Micros(row int) (us int64, ok bool, err error) {
	v := c.col.Values[row]
	if v == nil {
		return 0, false, nil
	}
	if c.encoding == epochMillisFloat {
		f, isFloat := v.(float64)
		if !isFloat {
			return 0, false, typeMismatch(c.col.Name, row, "want float64, got %T", v)
		}
		ms := f * 1000
		if math.IsNaN(ms) || ms >= math.MaxInt64 || ms <= math.MinInt64 {
			return 0, false, nil
		}
		return int64(ms), true, nil
	}
	n, isInt := v.(int64)
	if !isInt {
		return 0, false, typeMismatch(c.col.Name, row, "want int64, got %T", v)
	}
	switch c.encoding {
	case epochNanos:
		return n / 1000, true, nil
	case epochMillis:
		return n * 1000, true, nil
	default:
		return n, true, nil
	}
}

// floatColumn reads numeric columns as float64. A nil *floatColumn stands in
// for an absent optional column and yields no values.
type floatColumn struct {
	col *Column
}

func newFloatColumn(col *Column) (*floatColumn, error) {
	switch col.Type {
	case ValueFloat64, ValueFloat32, ValueInt64, ValueInt32:
		return &floatColumn{col: col}, nil
	}
	return nil, typeMismatch(col.Name, -1, "want a numeric column, got %s", col.Type)
}

// Value returns the float at row. ok is false for nulls and NaN.
func (c *floatColumn) Value(row int) (f float64, ok bool, err error) {
	if c == nil {
		return 0, false, nil
	}
	switch v := c.col.Values[row].(type) {
	case nil:
		return 0, false, nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	default:
		return 0, false, typeMismatch(c.col.Name, row, "want a number, got %T", v)
	}
	if math.IsNaN(f) {
		return 0, false, nil
	}
	return f, true, nil
}

// intColumn reads integer columns, accepting float columns that stand in for
// integers with NaN as the missing marker. Floats are truncated.
type intColumn struct {
	col *Column
}

func newIntColumn(col *Column) (*intColumn, error) {
	switch col.Type {
	case ValueInt64, ValueInt32, ValueFloat64, ValueFloat32:
		return &intColumn{col: col}, nil
	}
	return nil, typeMismatch(col.Name, -1, "want an integer or float column, got %s", col.Type)
}

// Value returns the integer at row. ok is false for nulls and NaN.
func (c *intColumn) Value(row int) (n int64, ok bool, err error) {
	if c == nil {
		return 0, false, nil
	}
	switch v := c.col.Values[row].(type) {
	case nil:
		return 0, false, nil
	case int64:
		return v, true, nil
	case int32:
		return int64(v), true, nil
	case float64:
		return truncate(v)
	case float32:
		return truncate(float64(v))
	default:
		return 0, false, typeMismatch(c.col.Name, row, "want a number, got %T", v)
	}
}

func truncate(f float64) (int64, bool, error) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false, nil
	}
	return int64(f), true, nil
}

type stringColumn struct {
	col *Column
}

func newStringColumn(col *Column) (*stringColumn, error) {
	if col.Type != ValueString {
		return nil, typeMismatch(col.Name, -1, "want a string column, got %s", col.Type)
	}
	return &stringColumn{col: col}, nil
}

// Value returns the string at row. ok is false for nulls.
func (c *stringColumn) Value(row int) (s string, ok bool, err error) {
	switch v := c.col.Values[row].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	default:
		return "", false, typeMismatch(c.col.Name, row, "want a string, got %T", v)
	}
}
