package dataprocessing

import (
	"math"
	"sort"

	"tickviewer/pkg/contracts/domain"
)

// SortedAscending returns a copy of trades stably sorted by Datetime.
func SortedAscending(trades []domain.TradeRecord) []domain.TradeRecord {
	asc := make([]domain.TradeRecord, len(trades))
	copy(asc, trades)
	sort.SliceStable(asc, func(i, j int) bool {
		return asc[i].Datetime < asc[j].Datetime
	})
	return asc
}

// runningTotals is the fold state shared by the chart and stats passes.
type runningTotals struct {
	volume   int64
	notional float64
}

func (r runningTotals) add(t domain.TradeRecord) runningTotals {
	return runningTotals{
		volume:   r.volume + t.Volume,
		notional: r.notional + t.Price*float64(t.Volume),
	}
}

// vwap is notional over volume, or 0 while no volume has traded.
func (r runningTotals) vwap() float64 {
	if r.volume == 0 {
		return 0
	}
	return r.notional / float64(r.volume)
}

// BuildChart builds the per-trade series from trades in ascending order.
// It returns nil when there are no trades.
func BuildChart(asc []domain.TradeRecord) *domain.Chart {
	if len(asc) == 0 {
		return nil
	}
	n := len(asc)
	chart := &domain.Chart{
		Timestamps:   make([]string, 0, n),
		Prices:       make([]float64, 0, n),
		Volumes:      make([]int64, 0, n),
		TotalVolumes: make([]int64, 0, n),
		VWAP:         make([]float64, 0, n),
	}
	var totals runningTotals
	for _, t := range asc {
		totals = totals.add(t)
		chart.Timestamps = append(chart.Timestamps, FormatTimestamp(t.Datetime))
		chart.Prices = append(chart.Prices, t.Price)
		chart.Volumes = append(chart.Volumes, t.Volume)
		chart.TotalVolumes = append(chart.TotalVolumes, totals.volume)
		chart.VWAP = append(chart.VWAP, totals.vwap())
	}
	return chart
}

// ComputeStats summarises trades in ascending order.
// It returns nil when there are no trades.
func ComputeStats(asc []domain.TradeRecord) *domain.Stats {
	if len(asc) == 0 {
		return nil
	}
	open := asc[0].Price
	current := asc[len(asc)-1].Price
	high, low := open, open
	var totals runningTotals
	for _, t := range asc {
		high = math.Max(high, t.Price)
		low = math.Min(low, t.Price)
		totals = totals.add(t)
	}

	change := current - open
	changePct := 0.0
	if open > 0 {
		changePct = change / open * 100
	}
	return &domain.Stats{
		CurrentPrice: current,
		OpenPrice:    open,
		HighPrice:    high,
		LowPrice:     low,
		AvgPrice:     totals.vwap(),
		TotalVolume:  totals.volume,
		TradeCount:   len(asc),
		Change:       change,
		ChangePct:    changePct,
	}
}
