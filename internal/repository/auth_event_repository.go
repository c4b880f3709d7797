package repository

import (
	"fmt"

	"gorm.io/gorm"

	"chemxplore/internal/model"
)

type AuthEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Create(event *model.AuthEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create auth event failed: %w", err)
	}
	return nil
}

func (r *AuthEventRepository) ListByUserID(userID uint, limit int) ([]model.AuthEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []model.AuthEvent
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list auth events failed: %w", err)
	}
	return events, nil
}
