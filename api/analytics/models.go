package analytics

import (
	"time"

	"github.com/stockpulse/stockpulseapi/api/quote"
)

// HistoricalPoint is a read-only projection of one past quote. Series are
// ordered newest-first everywhere in this package.
type HistoricalPoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// TodayStats summarizes the current trading day from the live quote.
type TodayStats struct {
	Open            float64 `json:"open"`
	High            float64 `json:"high"`
	Low             float64 `json:"low"`
	Ltp             float64 `json:"ltp"`
	Close           float64 `json:"close"`
	Change          float64 `json:"change"`
	ChangePercent   float64 `json:"change_percent"`
	Volume          int64   `json:"volume"`
	AvgPrice        float64 `json:"avg_price"`
	UpperCircuit    float64 `json:"upper_circuit"`
	LowerCircuit    float64 `json:"lower_circuit"`
	DayRange        string  `json:"day_range"`
	DayRangePercent float64 `json:"day_range_percent"`
}

// PeriodStats aggregates the historical series over a trailing window.
type PeriodStats struct {
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Range         string  `json:"range"`
	RangePercent  float64 `json:"range_percent"`
	AvgVolume     int64   `json:"avg_volume"`
	Trend         string  `json:"trend"`
}

// Week52Stats relates the live price to the 52-week band.
type Week52Stats struct {
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	CurrentVsHigh float64 `json:"current_vs_high"`
	CurrentVsLow  float64 `json:"current_vs_low"`
}

// TechnicalIndicators is the indicator block computed over recent closes.
type TechnicalIndicators struct {
	SMA20 float64 `json:"sma20"`
	SMA50 float64 `json:"sma50"`
	EMA12 float64 `json:"ema12"`
	EMA26 float64 `json:"ema26"`
	RSI   float64 `json:"rsi"`
	MACD  float64 `json:"macd"`
}

// Analytics is the full derived block for one instrument.
type Analytics struct {
	Today               TodayStats          `json:"today"`
	Week                PeriodStats         `json:"week"`
	Month               PeriodStats         `json:"month"`
	Quarter             PeriodStats         `json:"quarter"`
	Year                PeriodStats         `json:"year"`
	Week52              Week52Stats         `json:"week52"`
	TechnicalIndicators TechnicalIndicators `json:"technical_indicators"`
	Volatility          float64             `json:"volatility"`
	Support             []float64           `json:"support"`
	Resistance          []float64           `json:"resistance"`
}

// AnalyticsResult is the response for one analytics request. It is always
// reproducible from the live quote plus the historical series and is never
// persisted as authoritative state.
type AnalyticsResult struct {
	Token        string      `json:"token"`
	Symbol       string      `json:"symbol"`
	Exchange     string      `json:"exchange"`
	CurrentPrice quote.Quote `json:"current_price"`
	Analytics    Analytics   `json:"analytics"`
	Timestamp    time.Time   `json:"timestamp"`
}

// BulkResult carries one entry per requested instrument; failed entries
// report the error inline instead of failing the batch.
type BulkResult struct {
	Token  string           `json:"token"`
	Result *AnalyticsResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}
