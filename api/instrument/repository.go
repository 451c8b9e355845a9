package instrument

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) TruncateInstruments() error {
	return r.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s", InstrumentsTableName)).Error
}

func (r *Repository) InsertInstruments(instruments []InstrumentModel) (int, error) {
	if len(instruments) == 0 {
		return 0, nil
	}
	result := r.DB.Create(&instruments)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) GetInstrumentByToken(token string) (*InstrumentModel, error) {
	var instrument InstrumentModel
	err := r.DB.Where("token = ?", token).First(&instrument).Error
	if err != nil {
		return nil, err
	}
	return &instrument, nil
}

func (r *Repository) GetInstrumentByExchangeSymbol(exchange, symbol string) (*InstrumentModel, error) {
	var instrument InstrumentModel
	err := r.DB.Where("exchange = ? AND symbol = ?", exchange, symbol).First(&instrument).Error
	if err != nil {
		return nil, err
	}
	return &instrument, nil
}

func (r *Repository) QueryInstruments(exchange, symbol, name string) ([]InstrumentModel, error) {
	query := r.DB.Model(&InstrumentModel{})
	if exchange != "" {
		query = query.Where("exchange = ?", exchange)
	}
	if symbol != "" {
		query = query.Where("symbol LIKE ?", symbol)
	}
	if name != "" {
		query = query.Where("name LIKE ?", name)
	}

	var instruments []InstrumentModel
	if err := query.Limit(1000).Find(&instruments).Error; err != nil {
		return nil, err
	}
	return instruments, nil
}

// --------------------------------------------
// WatchInstruments func's grouped together
// --------------------------------------------

func (r *Repository) UpsertWatchInstrument(watch *WatchInstrument) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"symbol", "exchange", "updated_at"}),
	}).Create(watch).Error
}

func (r *Repository) DeleteWatchInstruments(tokens []string) (int64, error) {
	result := r.DB.Where("token IN ?", tokens).Delete(&WatchInstrument{})
	return result.RowsAffected, result.Error
}

func (r *Repository) GetWatchInstruments() ([]WatchInstrument, error) {
	var instruments []WatchInstrument
	err := r.DB.Order("exchange, symbol").Find(&instruments).Error
	return instruments, err
}

func (r *Repository) GetWatchInstrumentCount() (int64, error) {
	var count int64
	err := r.DB.Model(&WatchInstrument{}).Count(&count).Error
	return count, err
}
