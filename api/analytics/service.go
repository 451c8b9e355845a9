package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// historyWindowDays is the trailing window loaded for one computation; it
// covers the longest period aggregate.
const historyWindowDays = 365

// tokenResolver maps instrument tokens to their listing identity.
type tokenResolver interface {
	ResolveToken(token string) (symbol string, exchange string, err error)
}

// authProvider supplies the upstream auth token.
type authProvider interface {
	Token() string
}

// quoteSource fetches the live quote for one instrument.
type quoteSource interface {
	FetchOne(ctx context.Context, authToken string, listing quote.Listing) (quote.Quote, error)
}

type Service struct {
	repo     *Repository
	cache    *Cache
	resolver tokenResolver
	auth     authProvider
	quotes   quoteSource
}

func NewService(db *gorm.DB, cacheTTL time.Duration, resolver tokenResolver, auth authProvider, quotes quoteSource) *Service {
	return &Service{
		repo:     NewRepository(db),
		cache:    NewCache(cacheTTL),
		resolver: resolver,
		auth:     auth,
		quotes:   quotes,
	}
}

// Analyze returns the full analytics block for one instrument token. Results
// are cached per time bucket; a cached entry is served without touching the
// upstream.
func (s *Service) Analyze(ctx context.Context, token string) (*AnalyticsResult, error) {
	now := time.Now()

	symbol, exchange, err := s.resolver.ResolveToken(token)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(token, exchange, now); ok {
		return cached, nil
	}

	authToken := s.auth.Token()
	if authToken == "" {
		return nil, fmt.Errorf("no active broker session")
	}

	listing := quote.Listing{Token: token, Symbol: symbol, Exchange: exchange}
	liveQuote, err := s.quotes.FetchOne(ctx, authToken, listing)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s:%s: %v", exchange, symbol, err)
	}

	history, err := s.repo.GetHistory(token, historyWindowDays)
	if err != nil {
		return nil, err
	}

	result := &AnalyticsResult{
		Token:        token,
		Symbol:       symbol,
		Exchange:     exchange,
		CurrentPrice: liveQuote,
		Analytics:    Compute(liveQuote, history, now),
		Timestamp:    now,
	}

	s.cache.Put(token, exchange, result, now)

	// Persisting the observation is best-effort and must not delay the response.
	go func(q quote.Quote, indicators TechnicalIndicators) {
		if err := s.repo.AppendQuoteWithIndicators(q, indicators); err != nil {
			zaplogger.Error("Failed to append price history", zaplogger.Fields{
				"token": q.Token,
				"error": err,
			})
		}
	}(liveQuote, result.Analytics.TechnicalIndicators)

	return result, nil
}

// AnalyzeBulk computes analytics for multiple tokens. Per-token failures are
// reported inline; the batch itself always succeeds.
func (s *Service) AnalyzeBulk(ctx context.Context, tokens []string) []BulkResult {
	results := make([]BulkResult, 0, len(tokens))
	for _, token := range tokens {
		result, err := s.Analyze(ctx, token)
		if err != nil {
			results = append(results, BulkResult{Token: token, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{Token: token, Result: result})
	}
	return results
}

// RecordQuotes appends one history point per quote. Called by the poller
// after each broadcast cycle.
func (s *Service) RecordQuotes(quotes []quote.Quote) {
	for _, q := range quotes {
		if err := s.repo.AppendQuote(q); err != nil {
			zaplogger.Error("Failed to append price history", zaplogger.Fields{
				"token": q.Token,
				"error": err,
			})
		}
	}
}

// PruneHistory drops points past the retention window.
func (s *Service) PruneHistory() (int64, error) {
	return s.repo.PruneHistory()
}
