package session

import (
	"time"
)

const SessionsTableName = "api_sessions"

type SessionModel struct {
	ClientCode   string    `gorm:"primaryKey;uniqueIndex" json:"client_code"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	FeedToken    string    `json:"feed_token"`
	LoginTime    time.Time `json:"login_time"`
	HashedPin    string    `json:"-"` // Store hashed pin, but don't include in JSON output
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (SessionModel) TableName() string {
	return SessionsTableName
}
