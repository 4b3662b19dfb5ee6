package dataprocessing

import (
	"tickviewer/pkg/contracts/domain"
)

// Classify labels a trade against the best bid and ask of the preceding
// snapshot. The ask is checked first, so a crossed book yields SideOuter.
func Classify(price float64, bestBid, bestAsk domain.OptionalPrice) domain.AggressorSide {
	if bestAsk.Valid && price >= bestAsk.Value {
		return domain.SideOuter
	}
	if bestBid.Valid && price <= bestBid.Value {
		return domain.SideInner
	}
	return domain.SideNeutral
}

// ClassifyAgainst classifies price against prev, which may be nil.
func ClassifyAgainst(price float64, prev *domain.DepthRecord) domain.AggressorSide {
	if prev == nil {
		return domain.SideNeutral
	}
	return Classify(price, prev.BestBid, prev.BestAsk)
}

// ClassifyTrades labels every trade of an ascending trade list using a single
// sweep over the ladder. The result is parallel to trades.
func ClassifyTrades(trades []domain.TradeRecord, ladder *DepthLadder) []domain.AggressorSide {
	sides := make([]domain.AggressorSide, len(trades))
	cursor := ladder.Cursor()
	for i, t := range trades {
		prev, _ := cursor.Before(t.Datetime)
		sides[i] = ClassifyAgainst(t.Price, prev)
	}
	return sides
}
