package dataprocessing

import (
	"fmt"
	"strings"

	"tickviewer/pkg/contracts/domain"
)

// Column names of a stock-day tick file.
const (
	ColumnKind      = "Type"
	ColumnStockCode = "StockCode"
	ColumnDatetime  = "Datetime"
	ColumnPrice     = "Price"
	ColumnVolume    = "Volume"
	ColumnFlag      = "Flag"
)

// Row kinds found in ColumnKind. Rows of any other kind are ignored.
const (
	KindTrade = "Trade"
	KindDepth = "Depth"
)

// BidPriceColumn returns the column name of the bid price at level (1-based).
func BidPriceColumn(level int) string { return fmt.Sprintf("Bid%d_Price", level) }

// BidVolumeColumn returns the column name of the bid volume at level (1-based).
func BidVolumeColumn(level int) string { return fmt.Sprintf("Bid%d_Volume", level) }

// AskPriceColumn returns the column name of the ask price at level (1-based).
func AskPriceColumn(level int) string { return fmt.Sprintf("Ask%d_Price", level) }

// AskVolumeColumn returns the column name of the ask volume at level (1-based).
func AskVolumeColumn(level int) string { return fmt.Sprintf("Ask%d_Volume", level) }

// Decoded holds the canonical rows of one input file, in file order.
type Decoded struct {
	Trades    []domain.TradeRecord
	Depths    []domain.DepthRecord
	StockCode string
	Date      string
}

// Decode normalizes a table into trade and depth records.
//
// The stock code comes from the first row. The date comes from the first row
// with a resolvable timestamp and falls back to PlaceholderDate.
func Decode(table *Table) (*Decoded, error) {
	kinds, err := lookup(table, ColumnKind, newStringColumn)
	if err != nil {
		return nil, err
	}
	codes, err := lookup(table, ColumnStockCode, newStringColumn)
	if err != nil {
		return nil, err
	}
	times, err := lookup(table, ColumnDatetime, newTimeColumn)
	if err != nil {
		return nil, err
	}

	out := &Decoded{Date: PlaceholderDate}
	if table.NumRows() > 0 {
		code, _, err := codes.Value(0)
		if err != nil {
			return nil, err
		}
		out.StockCode = strings.TrimSpace(code)
	}

	var (
		trade   *tradeColumns
		depth   *depthColumns
		dateSet bool
	)
	for row := 0; row < table.NumRows(); row++ {
		ts, hasTime, err := times.Micros(row)
		if err != nil {
			return nil, err
		}
		if hasTime && !dateSet {
			out.Date = FormatDate(ts)
			dateSet = true
		}

		kind, _, err := kinds.Value(row)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindTrade:
			if trade == nil {
				if trade, err = resolveTradeColumns(table); err != nil {
					return nil, err
				}
			}
			if !hasTime {
				return nil, typeMismatch(ColumnDatetime, row, "trade row has no timestamp")
			}
			rec, err := trade.record(row, ts)
			if err != nil {
				return nil, err
			}
			out.Trades = append(out.Trades, rec)
		case KindDepth:
			if depth == nil {
				if depth, err = resolveDepthColumns(table); err != nil {
					return nil, err
				}
			}
			if !hasTime {
				return nil, typeMismatch(ColumnDatetime, row, "depth row has no timestamp")
			}
			rec, err := depth.record(row, ts)
			if err != nil {
				return nil, err
			}
			out.Depths = append(out.Depths, rec)
		}
	}
	return out, nil
}

func lookup[T any](table *Table, name string, adapt func(*Column) (T, error)) (T, error) {
	col, ok := table.Column(name)
	if !ok {
		var zero T
		return zero, missingColumn(name)
	}
	return adapt(col)
}

// optional adapts a column that may be missing. A missing column yields the
// zero adapter, which reads as absent on every row.
func optional[T any](table *Table, name string, adapt func(*Column) (T, error)) (T, error) {
	col, ok := table.Column(name)
	if !ok {
		var zero T
		return zero, nil
	}
	return adapt(col)
}

type tradeColumns struct {
	price  *floatColumn
	volume *intColumn
	flag   *intColumn
}

func resolveTradeColumns(table *Table) (*tradeColumns, error) {
	price, err := lookup(table, ColumnPrice, newFloatColumn)
	if err != nil {
		return nil, err
	}
	volume, err := lookup(table, ColumnVolume, newIntColumn)
	if err != nil {
		return nil, err
	}
	flag, err := lookup(table, ColumnFlag, newIntColumn)
	if err != nil {
		return nil, err
	}
	return &tradeColumns{price: price, volume: volume, flag: flag}, nil
}

func (c *tradeColumns) record(row int, ts int64) (domain.TradeRecord, error) {
	price, ok, err := c.price.Value(row)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	if !ok {
		return domain.TradeRecord{}, typeMismatch(ColumnPrice, row, "null or NaN in trade row")
	}
	volume, ok, err := c.volume.Value(row)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	if !ok {
		return domain.TradeRecord{}, typeMismatch(ColumnVolume, row, "null or NaN in trade row")
	}
	flag, ok, err := c.flag.Value(row)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	if !ok {
		return domain.TradeRecord{}, typeMismatch(ColumnFlag, row, "null or NaN in trade row")
	}
	return domain.TradeRecord{Datetime: ts, Price: price, Volume: volume, Flag: flag}, nil
}

// bookSide holds the optional columns of one side of the ladder, best level first.
type bookSide struct {
	prices  [domain.MaxDepthLevels]*floatColumn
	volumes [domain.MaxDepthLevels]*intColumn
}

type depthColumns struct {
	bids bookSide
	asks bookSide
}

func resolveDepthColumns(table *Table) (*depthColumns, error) {
	var (
		c   depthColumns
		err error
	)
	for i := 0; i < domain.MaxDepthLevels; i++ {
		level := i + 1
		if c.bids.prices[i], err = optional(table, BidPriceColumn(level), newFloatColumn); err != nil {
			return nil, err
		}
		if c.bids.volumes[i], err = optional(table, BidVolumeColumn(level), newIntColumn); err != nil {
			return nil, err
		}
		if c.asks.prices[i], err = optional(table, AskPriceColumn(level), newFloatColumn); err != nil {
			return nil, err
		}
		if c.asks.volumes[i], err = optional(table, AskVolumeColumn(level), newIntColumn); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (c *depthColumns) record(row int, ts int64) (domain.DepthRecord, error) {
	bids, bestBid, err := c.bids.levels(row)
	if err != nil {
		return domain.DepthRecord{}, err
	}
	asks, bestAsk, err := c.asks.levels(row)
	if err != nil {
		return domain.DepthRecord{}, err
	}
	return domain.DepthRecord{
		Datetime: ts,
		Bids:     bids,
		Asks:     asks,
		BestBid:  bestBid,
		BestAsk:  bestAsk,
	}, nil
}

// levels returns the quoted levels of row and the level-1 price on its own.
// A level is quoted only when both its price and volume are present.
func (s *bookSide) levels(row int) ([]domain.PriceLevel, domain.OptionalPrice, error) {
	var best domain.OptionalPrice
	levels := make([]domain.PriceLevel, 0, domain.MaxDepthLevels)
	for i := 0; i < domain.MaxDepthLevels; i++ {
		price, hasPrice, err := s.prices[i].Value(row)
		if err != nil {
			return nil, best, err
		}
		volume, hasVolume, err := s.volumes[i].Value(row)
		if err != nil {
			return nil, best, err
		}
		if i == 0 && hasPrice {
			best = domain.SomePrice(price)
		}
		if hasPrice && hasVolume {
			levels = append(levels, domain.PriceLevel{Price: price, Volume: volume})
		}
	}
	return levels, best, nil
}
