package types

import "time"

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the side that flattens a position opened on s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool { return s == Buy || s == Sell }

// Bar is a single OHLCV candle. Bars are ordered oldest first.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts the closing prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the traded volumes of bars.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Ticker is the latest quote for a symbol.
type Ticker struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Volume     float64   `json:"volume"`
	Change     float64   `json:"change"`
	Percentage float64   `json:"percentage"`
	Time       time.Time `json:"time"`
}

// Order asks an executor to trade Qty base units of Symbol. Price is the
// reference price the order was sized at; executors without their own
// quote fill at it.
type Order struct {
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	// meta
	Comment string `json:"comment,omitempty"`
}

// Fill is the confirmation returned by an executor for an accepted order.
type Fill struct {
	OrderID string    `json:"order_id"`
	Symbol  string    `json:"symbol"`
	Side    Side      `json:"side"`
	Qty     float64   `json:"qty"`
	Price   float64   `json:"price"`
	Time    time.Time `json:"time"`
}

// Empty reports whether the fill carries no confirmation.
func (f Fill) Empty() bool { return f.OrderID == "" }
