package quote

import (
	"context"
	"fmt"

	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// quoteAPI is the slice of the smartapi client the fetcher needs.
type quoteAPI interface {
	GetQuotes(ctx context.Context, authToken, mode string, exchangeTokens map[string][]string) (*smartapi.QuoteResult, error)
}

// UniverseProvider supplies the set of instruments to fetch.
type UniverseProvider interface {
	WatchedListings() ([]Listing, error)
}

// Fetcher pulls quotes for the configured universe from the upstream quote
// endpoint, one batched call for all venues.
type Fetcher struct {
	client   quoteAPI
	universe UniverseProvider
}

func NewFetcher(client quoteAPI, universe UniverseProvider) *Fetcher {
	return &Fetcher{client: client, universe: universe}
}

// FetchAll fetches and normalizes quotes for every watched instrument.
// Unfetched and unrecognized records are logged and skipped; an empty
// result is not an error.
func (f *Fetcher) FetchAll(ctx context.Context, authToken string) ([]Quote, error) {
	listings, err := f.universe.WatchedListings()
	if err != nil {
		return nil, fmt.Errorf("failed to load watch instruments: %v", err)
	}
	if len(listings) == 0 {
		return []Quote{}, nil
	}

	exchangeTokens := make(map[string][]string)
	for _, l := range listings {
		exchangeTokens[l.Exchange] = append(exchangeTokens[l.Exchange], l.Token)
	}

	result, err := f.client.GetQuotes(ctx, authToken, smartapi.ModeFull, exchangeTokens)
	if err != nil {
		return nil, err
	}

	return f.normalize(result, listings), nil
}

// FetchOne fetches the quote of a single instrument.
func (f *Fetcher) FetchOne(ctx context.Context, authToken string, listing Listing) (Quote, error) {
	exchangeTokens := map[string][]string{listing.Exchange: {listing.Token}}

	result, err := f.client.GetQuotes(ctx, authToken, smartapi.ModeFull, exchangeTokens)
	if err != nil {
		return Quote{}, err
	}

	quotes := f.normalize(result, []Listing{listing})
	if len(quotes) == 0 {
		return Quote{}, fmt.Errorf("no price data received for %s:%s", listing.Exchange, listing.Symbol)
	}
	return quotes[0], nil
}

func (f *Fetcher) normalize(result *smartapi.QuoteResult, listings []Listing) []Quote {
	for _, record := range result.Unfetched {
		zaplogger.Warn("Quote not fetched for instrument", zaplogger.Fields{
			"exchange": record.Exchange,
			"token":    record.SymbolToken,
			"message":  record.Message,
		})
	}

	normalizer := NewNormalizer(listings)
	quotes := make([]Quote, 0, len(result.Fetched))
	for _, record := range result.Fetched {
		q, ok := normalizer.Normalize(record)
		if !ok {
			zaplogger.Warn("Dropping quote for unknown token", zaplogger.Fields{
				"exchange": record.Exchange,
				"token":    record.SymbolToken,
			})
			continue
		}
		quotes = append(quotes, q)
	}

	return quotes
}
