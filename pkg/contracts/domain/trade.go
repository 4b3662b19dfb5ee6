package domain

// TradeRecord is a decoded trade row.
// Datetime is a microsecond epoch in UTC.
type TradeRecord struct {
	Datetime int64
	Price    float64
	Volume   int64
	Flag     int64
}

// AggressorSide labels which side of the book a trade most likely consumed.
type AggressorSide string

const (
	// SideOuter is a trade at or through the best ask (aggressive buy).
	SideOuter AggressorSide = "outer"
	// SideInner is a trade at or through the best bid (aggressive sell).
	SideInner AggressorSide = "inner"
	// SideNeutral is a trade inside the spread or without a preceding snapshot.
	SideNeutral AggressorSide = "neutral"
)

// Trade is a classified trade as it appears in the output document
type Trade struct {
	Time       string        `json:"time"`
	Price      float64       `json:"price"`
	Volume     int64         `json:"volume"`
	InnerOuter AggressorSide `json:"inner_outer"`
	Flag       int64         `json:"flag"`
}
