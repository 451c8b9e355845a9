package instrument

import (
	"time"
)

const (
	InstrumentsTableName      = "instruments"
	WatchInstrumentsTableName = "watch_instruments"
)

// InstrumentModel is one row of the broker symbol master.
type InstrumentModel struct {
	Token          string    `gorm:"primaryKey" json:"token"`
	Symbol         string    `gorm:"index:idx_exchange_symbol,priority:2" json:"symbol"`
	Name           string    `json:"name"`
	Exchange       string    `gorm:"index:idx_exchange_symbol,priority:1" json:"exchange"`
	Expiry         string    `json:"expiry"`
	Strike         float64   `json:"strike"`
	TickSize       float64   `json:"tick_size"`
	LotSize        uint      `json:"lot_size"`
	InstrumentType string    `json:"instrument_type"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}

// TableName specifies the table name for the Instrument model
func (InstrumentModel) TableName() string {
	return InstrumentsTableName
}

// WatchInstrument is one instrument of the quote fetch universe.
type WatchInstrument struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	Symbol    string    `gorm:"index" json:"symbol"`
	Exchange  string    `gorm:"index" json:"exchange"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WatchInstrument) TableName() string {
	return WatchInstrumentsTableName
}

// scripRecord is one entry of the upstream symbol master JSON file.
type scripRecord struct {
	Token          string `json:"token"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Expiry         string `json:"expiry"`
	Strike         string `json:"strike"`
	LotSize        string `json:"lotsize"`
	InstrumentType string `json:"instrumenttype"`
	ExchSeg        string `json:"exch_seg"`
	TickSize       string `json:"tick_size"`
}
