package dataprocessing

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tickviewer/pkg/contracts/domain"
)

// sessionOpen is 2024-01-02 09:30:00 UTC in microseconds.
var sessionOpen = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC).UnixMicro()

// testRow is one row of a synthetic tick table. Nil fields are nulls.
type testRow struct {
	Kind   interface{}
	Code   interface{}
	Time   interface{}
	Price  interface{}
	Volume interface{}
	Flag   interface{}
	Bids   [][2]interface{}
	Asks   [][2]interface{}
}

func tradeRow(ts int64, price float64, volume int64) testRow {
	return testRow{Kind: KindTrade, Code: "BBOB", Time: ts, Price: price, Volume: volume, Flag: int64(0)}
}

func depthRow(ts int64, bid, ask float64) testRow {
	return testRow{
		Kind: KindDepth,
		Code: "BBOB",
		Time: ts,
		Bids: [][2]interface{}{{bid, int64(100)}},
		Asks: [][2]interface{}{{ask, int64(100)}},
	}
}

// buildTable lays rows out as the columns of a tick file.
func buildTable(t *testing.T, timeType ValueType, rows []testRow) *Table {
	t.Helper()

	n := len(rows)
	col := func(name string, vt ValueType) *Column {
		return &Column{Name: name, Type: vt, Values: make([]interface{}, n)}
	}
	kind := col(ColumnKind, ValueString)
	code := col(ColumnStockCode, ValueString)
	ts := col(ColumnDatetime, timeType)
	price := col(ColumnPrice, ValueFloat64)
	volume := col(ColumnVolume, ValueInt64)
	flag := col(ColumnFlag, ValueInt64)
	columns := []*Column{kind, code, ts, price, volume, flag}

	var bidPrices, bidVolumes, askPrices, askVolumes [domain.MaxDepthLevels]*Column
	for i := 0; i < domain.MaxDepthLevels; i++ {
		bidPrices[i] = col(BidPriceColumn(i+1), ValueFloat64)
		bidVolumes[i] = col(BidVolumeColumn(i+1), ValueInt64)
		askPrices[i] = col(AskPriceColumn(i+1), ValueFloat64)
		askVolumes[i] = col(AskVolumeColumn(i+1), ValueInt64)
		columns = append(columns, bidPrices[i], bidVolumes[i], askPrices[i], askVolumes[i])
	}

	for r, row := range rows {
		kind.Values[r] = row.Kind
		code.Values[r] = row.Code
		ts.Values[r] = row.Time
		price.Values[r] = row.Price
		volume.Values[r] = row.Volume
		flag.Values[r] = row.Flag
		for i, level := range row.Bids {
			bidPrices[i].Values[r] = level[0]
			bidVolumes[i].Values[r] = level[1]
		}
		for i, level := range row.Asks {
			askPrices[i].Values[r] = level[0]
			askVolumes[i].Values[r] = level[1]
		}
	}

	table, err := NewTable(n, columns...)
	require.NoError(t, err)
	return table
}

// withColumns rebuilds table, dropping the named columns and then adding
// (or replacing) the given ones.
func withColumns(t *testing.T, table *Table, drop []string, add ...*Column) *Table {
	t.Helper()

	skip := make(map[string]bool, len(drop)+len(add))
	for _, name := range drop {
		skip[name] = true
	}
	for _, c := range add {
		skip[c.Name] = true
	}

	var columns []*Column
	for _, name := range table.ColumnNames() {
		if skip[name] {
			continue
		}
		c, _ := table.Column(name)
		columns = append(columns, c)
	}
	columns = append(columns, add...)

	out, err := NewTable(table.NumRows(), columns...)
	require.NoError(t, err)
	return out
}

func decodeRows(t *testing.T, rows []testRow) *Decoded {
	t.Helper()
	decoded, err := Decode(buildTable(t, ValueTimestampMicros, rows))
	require.NoError(t, err)
	return decoded
}

func quietTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
