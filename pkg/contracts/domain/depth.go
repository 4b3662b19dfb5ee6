package domain

// MaxDepthLevels is the number of quoted rungs captured per book side.
const MaxDepthLevels = 5

// PriceLevel is one present rung of the order book.
type PriceLevel struct {
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// OptionalPrice is a price that may be absent.
type OptionalPrice struct {
	Value float64
	Valid bool
}

// SomePrice returns a present price.
func SomePrice(v float64) OptionalPrice {
	return OptionalPrice{Value: v, Valid: true}
}

// DepthRecord is a decoded order-book snapshot.
//
// Bids and Asks hold only the levels where both price and volume were quoted,
// best level first. BestBid and BestAsk carry the level-1 price on its own, since
// a level-1 price may be quoted without a volume.
type DepthRecord struct {
	Datetime int64
	Bids     []PriceLevel
	Asks     []PriceLevel
	BestBid  OptionalPrice
	BestAsk  OptionalPrice
}

// DepthSnapshot is a depth record as it appears in the output document
type DepthSnapshot struct {
	Timestamp string       `json:"timestamp"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}
