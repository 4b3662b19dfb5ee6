package dataprocessing

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"

	apperrors "tickviewer/internal/errors"
)

// ReadParquet loads every top-level leaf column of a parquet file into a Table.
// Nested groups are skipped. Open and read failures are storage errors.
func ReadParquet(path string) (table *Table, err error) {
	pf, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer pf.Close()

	// parquet-go panics on some malformed pages
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = apperrors.NewStorageError(fmt.Sprintf("read %s", path), fmt.Errorf("%v", r))
		}
	}()

	pr, err := reader.NewParquetColumnReader(pf, 1)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("read footer of %s", path), err)
	}
	defer pr.ReadStop()

	rows := pr.GetNumRows()
	root := pr.SchemaHandler.GetRootExName()

	var columns []*Column
	descendants := 0
	for _, el := range pr.Footer.Schema[1:] {
		children := int(el.GetNumChildren())
		if descendants > 0 {
			descendants += children - 1
			continue
		}
		if children > 0 {
			descendants = children
			continue
		}

		name := el.GetName()
		values, _, _, err := pr.ReadColumnByPath(root+common.PAR_GO_PATH_DELIMITER+name, rows)
		if err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("read column %s of %s", name, path), err)
		}
		if int64(len(values)) != rows {
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("read column %s of %s", name, path),
				fmt.Errorf("got %d values for %d rows", len(values), rows))
		}
		columns = append(columns, &Column{Name: name, Type: valueTypeOf(el), Values: values})
	}

	return NewTable(int(rows), columns...)
}

// valueTypeOf maps a parquet schema element to the decoder's value types.
func valueTypeOf(el *parquet.SchemaElement) ValueType {
	if el.IsSetLogicalType() && el.GetLogicalType().IsSetTIMESTAMP() {
		unit := el.GetLogicalType().GetTIMESTAMP().GetUnit()
		switch {
		case unit.IsSetNANOS():
			return ValueTimestampNanos
		case unit.IsSetMICROS():
			return ValueTimestampMicros
		case unit.IsSetMILLIS():
			return ValueTimestampMillis
		}
	}
	if el.IsSetConvertedType() {
		switch el.GetConvertedType() {
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			return ValueTimestampMicros
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			return ValueTimestampMillis
		}
	}

	switch el.GetType() {
	case parquet.Type_BYTE_ARRAY, parquet.Type_FIXED_LEN_BYTE_ARRAY:
		return ValueString
	case parquet.Type_BOOLEAN:
		return ValueBool
	case parquet.Type_INT32:
		return ValueInt32
	case parquet.Type_INT64:
		return ValueInt64
	case parquet.Type_FLOAT:
		return ValueFloat32
	case parquet.Type_DOUBLE:
		return ValueFloat64
	default:
		return ValueUnknown
	}
}
