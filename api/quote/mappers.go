package quote

import (
	"time"

	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
)

// Normalizer maps raw upstream quote records to canonical quotes, dropping
// records whose token is not part of the configured universe.
type Normalizer struct {
	listings map[string]Listing
}

func NewNormalizer(listings []Listing) *Normalizer {
	byToken := make(map[string]Listing, len(listings))
	for _, l := range listings {
		byToken[l.Token] = l
	}
	return &Normalizer{listings: byToken}
}

// Normalize converts one raw record. The second return value is false when
// the record's token is unrecognized.
func (n *Normalizer) Normalize(record smartapi.QuoteRecord) (Quote, bool) {
	listing, ok := n.listings[record.SymbolToken]
	if !ok {
		return Quote{}, false
	}

	return Quote{
		Token:         record.SymbolToken,
		Symbol:        listing.Symbol,
		Exchange:      listing.Exchange,
		Ltp:           record.Ltp,
		Change:        record.NetChange,
		ChangePercent: record.PercentChange,
		Open:          record.Open,
		High:          record.High,
		Low:           record.Low,
		Close:         record.Close,
		Volume:        record.TradeVolume,
		AvgPrice:      record.AvgPrice,
		UpperCircuit:  record.UpperCircuit,
		LowerCircuit:  record.LowerCircuit,
		WeekHigh52:    record.WeekHigh52,
		WeekLow52:     record.WeekLow52,
		Timestamp:     time.Now(),
	}, true
}
