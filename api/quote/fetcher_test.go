package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
)

type fakeQuoteAPI struct {
	result *smartapi.QuoteResult
	err    error
	calls  int
	lastET map[string][]string
}

func (f *fakeQuoteAPI) GetQuotes(_ context.Context, _, _ string, exchangeTokens map[string][]string) (*smartapi.QuoteResult, error) {
	f.calls++
	f.lastET = exchangeTokens
	return f.result, f.err
}

type fakeUniverse struct {
	listings []Listing
	err      error
}

func (f *fakeUniverse) WatchedListings() ([]Listing, error) {
	return f.listings, f.err
}

func record(token string, ltp float64) smartapi.QuoteRecord {
	return smartapi.QuoteRecord{Exchange: "NSE", SymbolToken: token, Ltp: ltp}
}

func TestFetchAllEmptyUniverse(t *testing.T) {
	api := &fakeQuoteAPI{}
	fetcher := NewFetcher(api, &fakeUniverse{})

	quotes, err := fetcher.FetchAll(context.Background(), "token")
	require.NoError(t, err)
	require.Empty(t, quotes)
	require.Zero(t, api.calls)
}

func TestFetchAllBatchesByExchange(t *testing.T) {
	api := &fakeQuoteAPI{result: &smartapi.QuoteResult{
		Fetched: []smartapi.QuoteRecord{record("3045", 820.5), record("500325", 2950)},
	}}
	universe := &fakeUniverse{listings: []Listing{
		{Token: "3045", Symbol: "SBIN", Exchange: "NSE"},
		{Token: "500325", Symbol: "RELIANCE", Exchange: "BSE"},
	}}
	fetcher := NewFetcher(api, universe)

	quotes, err := fetcher.FetchAll(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, 1, api.calls)
	require.Equal(t, map[string][]string{
		"NSE": {"3045"},
		"BSE": {"500325"},
	}, api.lastET)
}

func TestFetchAllSurvivesUnfetched(t *testing.T) {
	api := &fakeQuoteAPI{result: &smartapi.QuoteResult{
		Fetched: []smartapi.QuoteRecord{record("3045", 820.5)},
		Unfetched: []smartapi.UnfetchedRecord{
			{Exchange: "NSE", SymbolToken: "11536", Message: "no data"},
		},
	}}
	universe := &fakeUniverse{listings: []Listing{
		{Token: "3045", Symbol: "SBIN", Exchange: "NSE"},
		{Token: "11536", Symbol: "TCS", Exchange: "NSE"},
	}}
	fetcher := NewFetcher(api, universe)

	quotes, err := fetcher.FetchAll(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "SBIN", quotes[0].Symbol)
}

func TestFetchAllDropsUnknownTokens(t *testing.T) {
	api := &fakeQuoteAPI{result: &smartapi.QuoteResult{
		Fetched: []smartapi.QuoteRecord{record("3045", 820.5), record("9999", 1)},
	}}
	universe := &fakeUniverse{listings: []Listing{
		{Token: "3045", Symbol: "SBIN", Exchange: "NSE"},
	}}
	fetcher := NewFetcher(api, universe)

	quotes, err := fetcher.FetchAll(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "3045", quotes[0].Token)
}

func TestFetchAllUpstreamError(t *testing.T) {
	api := &fakeQuoteAPI{err: errors.New("boom")}
	universe := &fakeUniverse{listings: []Listing{
		{Token: "3045", Symbol: "SBIN", Exchange: "NSE"},
	}}
	fetcher := NewFetcher(api, universe)

	_, err := fetcher.FetchAll(context.Background(), "token")
	require.Error(t, err)
}

func TestFetchOne(t *testing.T) {
	api := &fakeQuoteAPI{result: &smartapi.QuoteResult{
		Fetched: []smartapi.QuoteRecord{record("3045", 820.5)},
	}}
	fetcher := NewFetcher(api, &fakeUniverse{})

	q, err := fetcher.FetchOne(context.Background(), "token", Listing{Token: "3045", Symbol: "SBIN", Exchange: "NSE"})
	require.NoError(t, err)
	require.Equal(t, 820.5, q.Ltp)
	require.Equal(t, "SBIN", q.Symbol)
}

func TestFetchOneNoData(t *testing.T) {
	api := &fakeQuoteAPI{result: &smartapi.QuoteResult{
		Unfetched: []smartapi.UnfetchedRecord{{Exchange: "NSE", SymbolToken: "3045"}},
	}}
	fetcher := NewFetcher(api, &fakeUniverse{})

	_, err := fetcher.FetchOne(context.Background(), "token", Listing{Token: "3045", Symbol: "SBIN", Exchange: "NSE"})
	require.ErrorContains(t, err, "no price data received")
}
