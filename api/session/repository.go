package session

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) UpsertSession(session *SessionModel) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "refresh_token", "feed_token", "login_time", "hashed_pin", "updated_at"}),
	}).Create(session).Error
}

func (r *Repository) GetSessionByClientCode(clientCode string) (*SessionModel, error) {
	var session SessionModel
	err := r.DB.Where("client_code = ?", clientCode).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}
