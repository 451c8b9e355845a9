package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulseapi/api/quote"
)

// series builds a newest-first daily series from the given closes; the first
// close is today. Highs and lows are offset by one around the close.
func series(now time.Time, closes ...float64) []HistoricalPoint {
	points := make([]HistoricalPoint, len(closes))
	for i, c := range closes {
		points[i] = HistoricalPoint{
			Date:   now.AddDate(0, 0, -i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return points
}

func flatSeries(now time.Time, price float64, n int) []HistoricalPoint {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return series(now, closes...)
}

func TestComputeFlatSeries(t *testing.T) {
	now := time.Now()
	history := flatSeries(now, 100, 30)
	q := quote.Quote{Ltp: 100, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}

	result := Compute(q, history, now)

	// A flat series has no losses, no returns variance, and every moving
	// average equal to the price.
	require.Equal(t, 100.0, result.TechnicalIndicators.SMA20)
	require.Equal(t, 100.0, result.TechnicalIndicators.EMA12)
	require.Equal(t, 100.0, result.TechnicalIndicators.EMA26)
	require.Equal(t, 0.0, result.TechnicalIndicators.MACD)
	require.Equal(t, 100.0, result.TechnicalIndicators.RSI)
	require.Equal(t, 0.0, result.Volatility)

	require.Equal(t, []float64{99, 99, 99}, result.Support)
	require.Equal(t, []float64{101, 101, 101}, result.Resistance)

	require.Equal(t, TrendNeutral, result.Week.Trend)
	require.Equal(t, TrendNeutral, result.Year.Trend)
}

func TestComputeEmptyHistory(t *testing.T) {
	now := time.Now()
	q := quote.Quote{Ltp: 50, High: 52, Low: 49}

	result := Compute(q, nil, now)

	require.Equal(t, TrendNeutral, result.Week.Trend)
	require.Equal(t, 0.0, result.Week.Change)
	require.Equal(t, TechnicalIndicators{}, result.TechnicalIndicators)
	require.Equal(t, 0.0, result.Volatility)
	require.Empty(t, result.Support)
	require.Empty(t, result.Resistance)
}

func TestPeriodStatsChangeAndTrend(t *testing.T) {
	now := time.Now()
	history := series(now, 103, 101, 100)

	result := Compute(quote.Quote{}, history, now)

	// Newest close 103 against oldest 100 within the week window.
	require.Equal(t, 3.0, result.Week.Change)
	require.Equal(t, 3.0, result.Week.ChangePercent)
	require.Equal(t, 104.0, result.Week.High)
	require.Equal(t, 99.0, result.Week.Low)
	require.Equal(t, int64(1000), result.Week.AvgVolume)
	require.Equal(t, TrendBullish, result.Week.Trend)
}

func TestPeriodStatsBearishTrend(t *testing.T) {
	now := time.Now()
	history := series(now, 97, 99, 100)

	result := Compute(quote.Quote{}, history, now)

	require.Equal(t, TrendBearish, result.Week.Trend)
	require.Equal(t, -3.0, result.Week.Change)
}

func TestPeriodStatsExcludesOldPoints(t *testing.T) {
	now := time.Now()
	history := series(now, 100, 100)
	// One point well outside the week window.
	history = append(history, HistoricalPoint{
		Date:  now.AddDate(0, 0, -20),
		Close: 50,
		High:  51,
		Low:   49,
	})

	result := Compute(quote.Quote{}, history, now)

	require.Equal(t, 0.0, result.Week.Change)
	require.Equal(t, 99.0, result.Week.Low)
	// The month window still sees the old point.
	require.Equal(t, 50.0, result.Month.Change)
}

func TestWeek52Stats(t *testing.T) {
	now := time.Now()
	q := quote.Quote{Ltp: 90, WeekHigh52: 100, WeekLow52: 80}

	result := Compute(q, nil, now)

	require.Equal(t, -10.0, result.Week52.CurrentVsHigh)
	require.Equal(t, 12.5, result.Week52.CurrentVsLow)
	require.Equal(t, 100.0, result.Week52.High)
	require.Equal(t, 80.0, result.Week52.Low)
}

func TestIndicatorsInsufficientHistory(t *testing.T) {
	now := time.Now()
	history := flatSeries(now, 100, 19)

	require.Equal(t, TechnicalIndicators{}, Indicators(history))
}

func TestSMA(t *testing.T) {
	closes := []float64{10, 20, 30}

	require.Equal(t, 20.0, SMA(closes, 3))
	require.Equal(t, 15.0, SMA(closes, 2))
	require.Equal(t, 0.0, SMA(closes, 4))
}

func TestEMAInsufficient(t *testing.T) {
	require.Equal(t, 0.0, EMA([]float64{10, 20}, 3))
}

func TestEMAFlatEqualsPrice(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42
	}
	require.InDelta(t, 42.0, EMA(closes, 12), 1e-9)
}

func TestRSIAllGains(t *testing.T) {
	// Newest-first rising series: every diff is a gain.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	require.Equal(t, 100.0, RSI(closes, 14))
}

func TestRSIAllLosses(t *testing.T) {
	// Newest-first falling series: every diff is a loss.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	require.Equal(t, 0.0, RSI(closes, 14))
}

func TestRSIInsufficient(t *testing.T) {
	require.Equal(t, 0.0, RSI([]float64{1, 2, 3}, 14))
}

func TestVolatilityFlatSeries(t *testing.T) {
	now := time.Now()
	require.Equal(t, 0.0, Volatility(flatSeries(now, 100, 10)))
}

func TestVolatilityPositive(t *testing.T) {
	now := time.Now()
	history := series(now, 110, 100, 105, 95, 100)
	require.Greater(t, Volatility(history), 0.0)
}

func TestSupportResistanceGuard(t *testing.T) {
	now := time.Now()
	history := flatSeries(now, 100, 9)

	require.Empty(t, SupportLevels(history))
	require.Empty(t, ResistanceLevels(history))
}

func TestSupportResistanceLevels(t *testing.T) {
	now := time.Now()
	history := series(now, 100, 95, 110, 105, 90, 100, 100, 100, 100, 100)

	// Lows are close-1, highs are close+1.
	require.Equal(t, []float64{89, 94, 99}, SupportLevels(history))
	require.Equal(t, []float64{111, 106, 101}, ResistanceLevels(history))
}

func TestSupportSkipsNonPositiveLows(t *testing.T) {
	now := time.Now()
	history := flatSeries(now, 100, 10)
	history[0].Low = 0
	history[1].Low = -5

	require.Equal(t, []float64{99}, SupportLevels(history))
}
