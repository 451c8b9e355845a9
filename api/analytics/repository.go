package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulseapi/api/quote"
)

const (
	// historyQueryLimit caps one history read.
	historyQueryLimit = 1000
	// historyRetentionDays is how long stored points are kept.
	historyRetentionDays = 400
)

// PriceHistoryModel is one stored quote observation.
type PriceHistoryModel struct {
	ID         uint           `gorm:"primaryKey" json:"-"`
	Token      string         `gorm:"index:idx_price_history_token_ts" json:"token"`
	Symbol     string         `json:"symbol"`
	Exchange   string         `json:"exchange"`
	Open       float64        `json:"open"`
	High       float64        `json:"high"`
	Low        float64        `json:"low"`
	Ltp        float64        `json:"ltp"`
	Volume     int64          `json:"volume"`
	Indicators datatypes.JSON `gorm:"type:jsonb" json:"indicators,omitempty"`
	Timestamp  time.Time      `gorm:"index:idx_price_history_token_ts" json:"timestamp"`
}

const PriceHistoryTableName = "price_history"

func (PriceHistoryModel) TableName() string {
	return PriceHistoryTableName
}

// Repository persists and reads the per-token price history.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// AppendQuote records one observation of the quote.
func (r *Repository) AppendQuote(q quote.Quote) error {
	return r.append(q, nil)
}

// AppendQuoteWithIndicators records one observation together with the
// indicator block computed from it.
func (r *Repository) AppendQuoteWithIndicators(q quote.Quote, indicators TechnicalIndicators) error {
	data, err := json.Marshal(indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal indicators for %s: %v", q.Token, err)
	}
	return r.append(q, datatypes.JSON(data))
}

func (r *Repository) append(q quote.Quote, indicators datatypes.JSON) error {
	row := PriceHistoryModel{
		Token:      q.Token,
		Symbol:     q.Symbol,
		Exchange:   q.Exchange,
		Open:       q.Open,
		High:       q.High,
		Low:        q.Low,
		Ltp:        q.Ltp,
		Volume:     q.Volume,
		Indicators: indicators,
		Timestamp:  q.Timestamp,
	}
	if err := r.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append price history for %s: %v", q.Token, err)
	}
	return nil
}

// GetHistory returns the token's stored points within the trailing window,
// newest first. The last traded price doubles as the close for series that
// are still inside the trading day.
func (r *Repository) GetHistory(token string, days int) ([]HistoricalPoint, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []PriceHistoryModel
	err := r.DB.
		Where("token = ? AND timestamp >= ?", token, cutoff).
		Order("timestamp DESC").
		Limit(historyQueryLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read price history for %s: %v", token, err)
	}

	points := make([]HistoricalPoint, len(rows))
	for i, row := range rows {
		points[i] = HistoricalPoint{
			Date:   row.Timestamp,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Ltp,
			Volume: row.Volume,
		}
	}
	return points, nil
}

// PruneHistory deletes points older than the retention window and returns
// the number of rows removed.
func (r *Repository) PruneHistory() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -historyRetentionDays)

	result := r.DB.Where("timestamp < ?", cutoff).Delete(&PriceHistoryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune price history: %v", result.Error)
	}
	return result.RowsAffected, nil
}
