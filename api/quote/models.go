package quote

import (
	"time"
)

// Quote is one normalized market quote. It is immutable once constructed:
// the fetcher builds it, and downstream consumers (broadcast, snapshots,
// persistence) only ever read it.
type Quote struct {
	Token         string    `json:"token"`
	Symbol        string    `json:"symbol"`
	Exchange      string    `json:"exchange"`
	Ltp           float64   `json:"ltp"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        int64     `json:"volume"`
	AvgPrice      float64   `json:"avg_price"`
	UpperCircuit  float64   `json:"upper_circuit"`
	LowerCircuit  float64   `json:"lower_circuit"`
	WeekHigh52    float64   `json:"week_high_52"`
	WeekLow52     float64   `json:"week_low_52"`
	Timestamp     time.Time `json:"timestamp"`
}

// Listing identifies a watched instrument.
type Listing struct {
	Token    string `json:"token"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}
