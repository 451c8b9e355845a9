package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/stockpulse/stockpulseapi/api/quote"
)

// Period windows in trailing days.
const (
	weekDays    = 7
	monthDays   = 30
	quarterDays = 90
	yearDays    = 365
)

const (
	// indicatorMinPoints is the history size below which the whole
	// indicator block reports zeros.
	indicatorMinPoints = 20
	// indicatorMaxCloses caps the closes fed to the indicator math.
	indicatorMaxCloses = 50
	// emaLookahead bounds how many points the EMA rolls forward after its
	// SMA seed. This matches the historical behaviour of the service and
	// is deliberately not a full-series EMA.
	emaLookahead = 10
	// levelMinPoints is the history size below which no support or
	// resistance levels are reported.
	levelMinPoints = 10
	// tradingDaysPerYear annualizes the day-over-day return deviation.
	tradingDaysPerYear = 252
)

const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Compute derives the full analytics block from the live quote and the
// historical series (newest-first). An empty series yields neutral,
// zero-filled aggregates rather than an error.
func Compute(q quote.Quote, history []HistoricalPoint, now time.Time) Analytics {
	return Analytics{
		Today:               todayStats(q),
		Week:                periodStats(history, weekDays, now),
		Month:               periodStats(history, monthDays, now),
		Quarter:             periodStats(history, quarterDays, now),
		Year:                periodStats(history, yearDays, now),
		Week52:              week52Stats(q),
		TechnicalIndicators: Indicators(history),
		Volatility:          Volatility(history),
		Support:             SupportLevels(history),
		Resistance:          ResistanceLevels(history),
	}
}

func todayStats(q quote.Quote) TodayStats {
	rangePercent := 0.0
	if q.Low > 0 {
		rangePercent = round2((q.High - q.Low) / q.Low * 100)
	}

	return TodayStats{
		Open:            q.Open,
		High:            q.High,
		Low:             q.Low,
		Ltp:             q.Ltp,
		Close:           q.Close,
		Change:          q.Change,
		ChangePercent:   q.ChangePercent,
		Volume:          q.Volume,
		AvgPrice:        q.AvgPrice,
		UpperCircuit:    q.UpperCircuit,
		LowerCircuit:    q.LowerCircuit,
		DayRange:        formatRange(q.Low, q.High),
		DayRangePercent: rangePercent,
	}
}

// periodStats aggregates the points within the trailing window. The series
// is newest-first, so the window's oldest point is its last element.
func periodStats(history []HistoricalPoint, days int, now time.Time) PeriodStats {
	window := dataForPeriod(history, days, now)
	if len(window) == 0 {
		return emptyPeriodStats()
	}

	high := window[0].High
	low := window[0].Low
	var totalVolume int64
	for _, p := range window {
		if p.High > high {
			high = p.High
		}
		if p.Low < low {
			low = p.Low
		}
		totalVolume += p.Volume
	}

	newest := window[0].Close
	oldest := window[len(window)-1].Close
	change := newest - oldest
	changePercent := 0.0
	if oldest > 0 {
		changePercent = round2(change / oldest * 100)
	}
	rangePercent := 0.0
	if low > 0 {
		rangePercent = round2((high - low) / low * 100)
	}

	return PeriodStats{
		High:          high,
		Low:           low,
		Change:        change,
		ChangePercent: changePercent,
		Range:         formatRange(low, high),
		RangePercent:  rangePercent,
		AvgVolume:     int64(math.Round(float64(totalVolume) / float64(len(window)))),
		Trend:         trend(window),
	}
}

func emptyPeriodStats() PeriodStats {
	return PeriodStats{
		Range: formatRange(0, 0),
		Trend: TrendNeutral,
	}
}

func dataForPeriod(history []HistoricalPoint, days int, now time.Time) []HistoricalPoint {
	cutoff := now.AddDate(0, 0, -days)
	window := make([]HistoricalPoint, 0, len(history))
	for _, p := range history {
		if !p.Date.Before(cutoff) {
			window = append(window, p)
		}
	}
	return window
}

// trend compares newest against oldest close with a 2% band.
func trend(window []HistoricalPoint) string {
	if len(window) < 2 {
		return TrendNeutral
	}

	newest := window[0].Close
	oldest := window[len(window)-1].Close

	if newest > oldest*1.02 {
		return TrendBullish
	}
	if newest < oldest*0.98 {
		return TrendBearish
	}
	return TrendNeutral
}

func week52Stats(q quote.Quote) Week52Stats {
	stats := Week52Stats{High: q.WeekHigh52, Low: q.WeekLow52}
	if q.WeekHigh52 > 0 {
		stats.CurrentVsHigh = round2((q.Ltp - q.WeekHigh52) / q.WeekHigh52 * 100)
	}
	if q.WeekLow52 > 0 {
		stats.CurrentVsLow = round2((q.Ltp - q.WeekLow52) / q.WeekLow52 * 100)
	}
	return stats
}

// Indicators computes the technical indicator block over the most recent
// closes. Below indicatorMinPoints of history everything reports zero.
func Indicators(history []HistoricalPoint) TechnicalIndicators {
	if len(history) < indicatorMinPoints {
		return TechnicalIndicators{}
	}

	limit := len(history)
	if limit > indicatorMaxCloses {
		limit = indicatorMaxCloses
	}
	closes := make([]float64, limit)
	for i := 0; i < limit; i++ {
		closes[i] = history[i].Close
	}

	ema12 := round2(EMA(closes, 12))
	ema26 := round2(EMA(closes, 26))

	return TechnicalIndicators{
		SMA20: round2(SMA(closes, 20)),
		SMA50: round2(SMA(closes, 50)),
		EMA12: ema12,
		EMA26: ema26,
		RSI:   round2(RSI(closes, 14)),
		MACD:  round2(ema12 - ema26),
	}
}

// SMA is the arithmetic mean of the n most recent closes (newest-first
// slice). Returns 0 when fewer than n closes are available.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n {
		return 0
	}
	sum := 0.0
	for _, c := range closes[:n] {
		sum += c
	}
	return sum / float64(n)
}

// EMA seeds with SMA(n) over the first n closes, then rolls forward over at
// most emaLookahead further points with alpha = 2/(n+1). Returns 0 when
// fewer than n closes are available.
func EMA(closes []float64, n int) float64 {
	if len(closes) < n {
		return 0
	}

	alpha := 2.0 / float64(n+1)
	ema := SMA(closes, n)

	end := n + emaLookahead
	if end > len(closes) {
		end = len(closes)
	}
	for i := n; i < end; i++ {
		ema = closes[i]*alpha + ema*(1-alpha)
	}

	return ema
}

// RSI computes the relative strength index over the n most recent
// close-to-close differences. A series with no losses reports 100.
func RSI(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 0
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= n; i++ {
		change := closes[i-1] - closes[i]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(n)
	avgLoss := losses / float64(n)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Volatility is the standard deviation of simple day-over-day returns,
// annualized over tradingDaysPerYear. Fewer than 2 points reports 0.
func Volatility(history []HistoricalPoint) float64 {
	if len(history) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		current := history[i-1].Close
		previous := history[i].Close
		if previous > 0 {
			returns = append(returns, (current-previous)/previous)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return round2(math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100)
}

// SupportLevels returns up to the 3 lowest recorded positive lows.
func SupportLevels(history []HistoricalPoint) []float64 {
	if len(history) < levelMinPoints {
		return []float64{}
	}

	lows := make([]float64, len(history))
	for i, p := range history {
		lows[i] = p.Low
	}
	sort.Float64s(lows)

	supports := []float64{}
	for i := 0; i < 3 && i < len(lows); i++ {
		if lows[i] > 0 {
			supports = append(supports, round2(lows[i]))
		}
	}
	return supports
}

// ResistanceLevels returns up to the 3 highest recorded positive highs.
func ResistanceLevels(history []HistoricalPoint) []float64 {
	if len(history) < levelMinPoints {
		return []float64{}
	}

	highs := make([]float64, len(history))
	for i, p := range history {
		highs[i] = p.High
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(highs)))

	resistances := []float64{}
	for i := 0; i < 3 && i < len(highs); i++ {
		if highs[i] > 0 {
			resistances = append(resistances, round2(highs[i]))
		}
	}
	return resistances
}

func formatRange(low, high float64) string {
	return fmt.Sprintf("%.2f - %.2f", low, high)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
