package dataprocessing

import (
	"tickviewer/pkg/contracts/domain"
)

// Assemble composes the output document from decoded rows.
// It returns ErrEmptyInput when there are neither trades nor depths.
func Assemble(d *Decoded) (*domain.StockDayDocument, error) {
	if len(d.Trades) == 0 && len(d.Depths) == 0 {
		return nil, ErrEmptyInput
	}

	asc := SortedAscending(d.Trades)
	sides := ClassifyTrades(asc, NewDepthLadder(d.Depths))
	history := depthHistory(d.Depths)

	doc := &domain.StockDayDocument{
		Chart:        BuildChart(asc),
		DepthHistory: history,
		Trades:       newestFirst(asc, sides),
		Stats:        ComputeStats(asc),
		StockCode:    d.StockCode,
		Date:         d.Date,
	}
	if len(history) > 0 {
		current := history[len(history)-1]
		doc.Depth = &current
	}
	return doc, nil
}

// newestFirst orders classified trades by descending time. Trades sharing a
// timestamp keep their input order.
func newestFirst(asc []domain.TradeRecord, sides []domain.AggressorSide) []domain.Trade {
	out := make([]domain.Trade, 0, len(asc))
	end := len(asc)
	for end > 0 {
		start := end - 1
		for start > 0 && asc[start-1].Datetime == asc[end-1].Datetime {
			start--
		}
		for i := start; i < end; i++ {
			out = append(out, domain.Trade{
				Time:       FormatTimestamp(asc[i].Datetime),
				Price:      asc[i].Price,
				Volume:     asc[i].Volume,
				InnerOuter: sides[i],
				Flag:       asc[i].Flag,
			})
		}
		end = start
	}
	return out
}

func depthHistory(depths []domain.DepthRecord) []domain.DepthSnapshot {
	history := make([]domain.DepthSnapshot, 0, len(depths))
	for _, d := range depths {
		history = append(history, domain.DepthSnapshot{
			Timestamp: FormatTimestamp(d.Datetime),
			Bids:      nonNil(d.Bids),
			Asks:      nonNil(d.Asks),
		})
	}
	return history
}

func nonNil(levels []domain.PriceLevel) []domain.PriceLevel {
	if levels == nil {
		return []domain.PriceLevel{}
	}
	return levels
}
