package domain

// Chart holds the per-trade time series in ascending time order.
// All slices have the same length.
type Chart struct {
	Timestamps   []string  `json:"timestamps"`
	Prices       []float64 `json:"prices"`
	Volumes      []int64   `json:"volumes"`
	TotalVolumes []int64   `json:"total_volumes"`
	VWAP         []float64 `json:"vwap"`
}

// Len returns the number of points in the series.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Timestamps)
}

// Stats summarises one stock-day of trades.
type Stats struct {
	CurrentPrice float64 `json:"current_price"`
	OpenPrice    float64 `json:"open_price"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	AvgPrice     float64 `json:"avg_price"`
	TotalVolume  int64   `json:"total_volume"`
	TradeCount   int     `json:"trade_count"`
	Change       float64 `json:"change"`
	ChangePct    float64 `json:"change_pct"`
}

// StockDayDocument is the converted output for one stock on one date.
// Chart, Depth and Stats are nil when the source carried no trades or no depth.
type StockDayDocument struct {
	Chart        *Chart          `json:"chart"`
	Depth        *DepthSnapshot  `json:"depth"`
	DepthHistory []DepthSnapshot `json:"depth_history"`
	Trades       []Trade         `json:"trades"`
	Stats        *Stats          `json:"stats"`
	StockCode    string          `json:"stock_code"`
	Date         string          `json:"date"`
}

// StockSummary is one row of a per-date summary: the stats of a single stock.
type StockSummary struct {
	StockCode string `json:"stock_code" validate:"required"`
	Date      string `json:"date" validate:"required,len=8,numeric"`
	Stats
}
