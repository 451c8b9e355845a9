package instrument

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// SymbolMasterURL is the broker's published scrip master file.
var SymbolMasterURL = "https://margincalculator.angelbroking.com/OpenAPI_File/files/OpenAPIScripMaster.json"

type Service struct {
	repo   *Repository
	client *http.Client
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		repo:   NewRepository(db),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// UpdateInstruments downloads the symbol master and replaces the instruments table.
func (s *Service) UpdateInstruments() (int, error) {
	resp, err := s.client.Get(SymbolMasterURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch symbol master: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to fetch symbol master: status %d", resp.StatusCode)
	}

	var scrips []scripRecord
	if err := json.NewDecoder(resp.Body).Decode(&scrips); err != nil {
		return 0, fmt.Errorf("failed to parse symbol master: %v", err)
	}

	if err := s.repo.TruncateInstruments(); err != nil {
		return 0, fmt.Errorf("failed to truncate table: %v", err)
	}

	batchSize := 500
	totalInserted := 0
	batch := make([]InstrumentModel, 0, batchSize)
	for _, scrip := range scrips {
		if scrip.Token == "" || scrip.Symbol == "" {
			continue
		}
		batch = append(batch, mapScrip(scrip))

		if len(batch) == batchSize {
			inserted, err := s.repo.InsertInstruments(batch)
			if err != nil {
				zaplogger.Error("Failed to insert batch", zaplogger.Fields{"inserted": totalInserted, "error": err})
				return totalInserted, fmt.Errorf("failed to insert batch after %d rows: %v", totalInserted, err)
			}
			totalInserted += inserted
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		inserted, err := s.repo.InsertInstruments(batch)
		if err != nil {
			return totalInserted, fmt.Errorf("failed to insert final batch: %v", err)
		}
		totalInserted += inserted
	}

	return totalInserted, nil
}

func mapScrip(scrip scripRecord) InstrumentModel {
	strike, _ := strconv.ParseFloat(scrip.Strike, 64)
	tickSize, _ := strconv.ParseFloat(scrip.TickSize, 64)
	lotSize, _ := strconv.ParseUint(scrip.LotSize, 10, 32)

	return InstrumentModel{
		Token:          scrip.Token,
		Symbol:         scrip.Symbol,
		Name:           scrip.Name,
		Exchange:       scrip.ExchSeg,
		Expiry:         scrip.Expiry,
		Strike:         strike,
		TickSize:       tickSize,
		LotSize:        uint(lotSize),
		InstrumentType: scrip.InstrumentType,
	}
}

// AddWatchInstruments adds "EXCHANGE:SYMBOL" entries to the fetch universe.
func (s *Service) AddWatchInstruments(instruments []string) (map[string]interface{}, error) {
	added := 0
	failed := []string{}

	for _, instr := range instruments {
		parts := strings.SplitN(strings.TrimSpace(instr), ":", 2)
		if len(parts) != 2 {
			failed = append(failed, instr)
			continue
		}

		model, err := s.repo.GetInstrumentByExchangeSymbol(parts[0], parts[1])
		if err != nil {
			failed = append(failed, instr)
			continue
		}

		watch := WatchInstrument{
			Token:    model.Token,
			Symbol:   model.Symbol,
			Exchange: model.Exchange,
		}
		if err := s.repo.UpsertWatchInstrument(&watch); err != nil {
			failed = append(failed, instr)
			continue
		}
		added++
	}

	total, err := s.repo.GetWatchInstrumentCount()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"requested": len(instruments),
		"added":     added,
		"failed":    failed,
		"total":     total,
	}, nil
}

// DeleteWatchInstruments removes tokens from the fetch universe.
func (s *Service) DeleteWatchInstruments(tokens []string) (int64, error) {
	return s.repo.DeleteWatchInstruments(tokens)
}

// GetWatchInstruments returns the current fetch universe.
func (s *Service) GetWatchInstruments() ([]WatchInstrument, error) {
	return s.repo.GetWatchInstruments()
}

// WatchedListings returns the fetch universe as quote listings.
func (s *Service) WatchedListings() ([]quote.Listing, error) {
	watched, err := s.repo.GetWatchInstruments()
	if err != nil {
		return nil, err
	}

	listings := make([]quote.Listing, len(watched))
	for i, w := range watched {
		listings[i] = quote.Listing{Token: w.Token, Symbol: w.Symbol, Exchange: w.Exchange}
	}
	return listings, nil
}

// ResolveToken maps an instrument token to its symbol and exchange.
func (s *Service) ResolveToken(token string) (string, string, error) {
	model, err := s.repo.GetInstrumentByToken(token)
	if err != nil {
		return "", "", fmt.Errorf("unknown instrument token %s", token)
	}
	return model.Symbol, model.Exchange, nil
}

// QueryInstruments searches the symbol master.
func (s *Service) QueryInstruments(exchange, symbol, name string) ([]InstrumentModel, error) {
	return s.repo.QueryInstruments(exchange, symbol, name)
}
