package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// TickRow is one row of a decoded quotes parquet file. Pointer fields are
// optional and written as nulls when nil.
type TickRow struct {
	Type       string   `parquet:"name=Type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StockCode  string   `parquet:"name=StockCode, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Datetime   int64    `parquet:"name=Datetime, type=INT64, logicaltype=TIMESTAMP, logicaltype.isadjustedtoutc=true, logicaltype.unit=MICROS"`
	Price      *float64 `parquet:"name=Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume     *int64   `parquet:"name=Volume, type=INT64, repetitiontype=OPTIONAL"`
	Flag       *int64   `parquet:"name=Flag, type=INT64, repetitiontype=OPTIONAL"`
	Bid1Price  *float64 `parquet:"name=Bid1_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Bid1Volume *int64   `parquet:"name=Bid1_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Bid2Price  *float64 `parquet:"name=Bid2_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Bid2Volume *int64   `parquet:"name=Bid2_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Bid3Price  *float64 `parquet:"name=Bid3_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Bid3Volume *int64   `parquet:"name=Bid3_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Bid4Price  *float64 `parquet:"name=Bid4_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Bid4Volume *int64   `parquet:"name=Bid4_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Bid5Price  *float64 `parquet:"name=Bid5_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Bid5Volume *int64   `parquet:"name=Bid5_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Ask1Price  *float64 `parquet:"name=Ask1_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ask1Volume *int64   `parquet:"name=Ask1_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Ask2Price  *float64 `parquet:"name=Ask2_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ask2Volume *int64   `parquet:"name=Ask2_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Ask3Price  *float64 `parquet:"name=Ask3_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ask3Volume *int64   `parquet:"name=Ask3_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Ask4Price  *float64 `parquet:"name=Ask4_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ask4Volume *int64   `parquet:"name=Ask4_Volume, type=INT64, repetitiontype=OPTIONAL"`
	Ask5Price  *float64 `parquet:"name=Ask5_Price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Ask5Volume *int64   `parquet:"name=Ask5_Volume, type=INT64, repetitiontype=OPTIONAL"`
}

// Micros returns the microsecond epoch of t.
func Micros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// TradeTick builds a trade row.
func TradeTick(code string, ts int64, price float64, volume int64) TickRow {
	flag := int64(0)
	return TickRow{Type: "Trade", StockCode: code, Datetime: ts, Price: &price, Volume: &volume, Flag: &flag}
}

// DepthTick builds a depth row with one level per side.
func DepthTick(code string, ts int64, bid float64, bidVolume int64, ask float64, askVolume int64) TickRow {
	return TickRow{
		Type:       "Depth",
		StockCode:  code,
		Datetime:   ts,
		Bid1Price:  &bid,
		Bid1Volume: &bidVolume,
		Ask1Price:  &ask,
		Ask1Volume: &askVolume,
	}
}

// WriteTickFile writes rows to path as a snappy-compressed parquet file,
// creating parent directories as needed.
func WriteTickFile(t *testing.T, path string, rows ...TickRow) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(TickRow), 1)
	if err != nil {
		t.Fatalf("create parquet writer: %v", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			t.Fatalf("write fixture row: %v", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		t.Fatalf("finish fixture: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
}

// WriteSampleDay writes a small trading day for code under root/date and
// returns the file path. The day holds one depth snapshot and two trades.
func WriteSampleDay(t *testing.T, root, date, code string) string {
	t.Helper()

	day, err := time.Parse("20060102", date)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", date, err)
	}
	open := Micros(day.Add(9*time.Hour + 30*time.Minute))

	path := filepath.Join(root, date, code+".parquet")
	WriteTickFile(t, path,
		DepthTick(code, open+150, 10, 100, 10.5, 200),
		TradeTick(code, open+100, 10, 5),
		TradeTick(code, open+200, 11, 5),
	)
	return path
}

// WriteEmptyDay writes a parquet file with no trade or depth rows.
func WriteEmptyDay(t *testing.T, root, date, code string) string {
	t.Helper()

	path := filepath.Join(root, date, code+".parquet")
	WriteTickFile(t, path, TickRow{Type: "Header", StockCode: code, Datetime: 1})
	return path
}
